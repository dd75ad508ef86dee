package adapthttp

import (
	"net/http"

	"healthrisk/internal/domain"

	"go.uber.org/zap"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	who := identityFrom(r.Context())
	items, err := s.predictions.History(r.Context(), who.UserID, intQuery(r, "limit", 0))
	if err != nil {
		s.logger.Error("history",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Int64("user_id", who.UserID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	if items == nil {
		items = []domain.PredictionRecord{}
	}
	for i := range items {
		items[i].Score = round2(items[i].Score)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

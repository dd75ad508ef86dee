package adapthttp

import (
	"errors"
	"fmt"
	"net/http"

	"healthrisk/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type predictResponse struct {
	Success   bool     `json:"success"`
	Disease   string   `json:"disease"`
	RiskLevel string   `json:"riskLevel"`
	RiskScore float64  `json:"riskScore"`
	Message   string   `json:"message"`
	Advice    []string `json:"advice"`
	Method    string   `json:"method"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body map[string]any
	if err := parseJSON(r, &body); err != nil || body == nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	a, err := s.predictions.Predict(r.Context(), identityFrom(r.Context()), conditionOf(body), body)
	if err != nil {
		status := predictStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("predict",
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.Error(err),
			)
			err = errInternal
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Success:   true,
		Disease:   a.Condition.String(),
		RiskLevel: a.Tier.String(),
		RiskScore: round2(a.Score),
		Message:   a.Message,
		Advice:    a.Advice,
		Method:    a.Method,
	})
}

// conditionOf reads the condition selector; "disease" wins over "condition".
// A non-string selector is passed through in printed form so that it is
// rejected as unsupported.
func conditionOf(body map[string]any) string {
	for _, key := range []string{"disease", "condition"} {
		switch v := body[key].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

// predictStatus maps a prediction error to its HTTP status.
func predictStatus(err error) int {
	var verr *domain.ValidationError
	var uerr *domain.UnsupportedConditionError
	switch {
	case errors.As(err, &verr), errors.As(err, &uerr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

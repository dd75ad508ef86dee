package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"healthrisk/internal/app"
	"healthrisk/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
)

const requestIDHeader = "X-Request-ID"

// identityFrom returns the caller attached by the auth middleware, if any.
func identityFrom(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(userContextKey).(*domain.Identity)
	return id
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// requireAuth rejects requests without a valid session or trusted forward
// auth header.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, err := s.authenticate(r)
		if err != nil {
			s.logger.Error("authenticate", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
			writeError(w, http.StatusInternalServerError, errInternal)
			return
		}
		if who == nil {
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, who)))
	})
}

// optionalAuth attaches the caller when one can be resolved and otherwise
// serves the request anonymously.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, err := s.authenticate(r)
		if err != nil {
			s.logger.Warn("optional authenticate", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		}
		if who != nil {
			r = r.WithContext(context.WithValue(r.Context(), userContextKey, who))
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the caller. It returns (nil, nil) for anonymous
// requests and an error only when the stores fail.
func (s *Server) authenticate(r *http.Request) (*domain.Identity, error) {
	if s.trustForwardAuth {
		if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
			user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
			if err != nil {
				return nil, err
			}
			who := domain.IdentityOf(user)
			return &who, nil
		}
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
	switch {
	case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionExpired), errors.Is(err, app.ErrUserNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	who := domain.IdentityOf(user)
	return &who, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware assigns a request id and writes one access log line per
// request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), requestIDContextKey, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", reqID),
		)
	})
}

package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"healthrisk/internal/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := &Server{logger: zap.New(core)}

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestIDFrom(r.Context()) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("OK"))
	})

	handler := s.loggingMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" || fields["path"] != "/test-path" || fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("Log entry missing expected fields. Got: %v", fields)
	}
	if fields["request_id"] != w.Header().Get(requestIDHeader) {
		t.Errorf("request id mismatch: log %v, header %q", fields["request_id"], w.Header().Get(requestIDHeader))
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	s := &Server{logger: zap.NewNop()}
	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := requestIDFrom(r.Context()); got != "abc-123" {
			t.Errorf("expected incoming request id, got %q", got)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
}

func TestPredictStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: domain.FieldAge}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("parse: %w", &domain.ValidationError{Field: domain.FieldBMI, Reason: "must be positive"}), http.StatusBadRequest},
		{"unsupported", &domain.UnsupportedConditionError{Value: "cancer"}, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := predictStatus(tc.err); got != tc.want {
				t.Errorf("predictStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestIDClaimsUsername(t *testing.T) {
	tests := []struct {
		name    string
		claims  idClaims
		want    string
		wantErr bool
	}{
		{"email wins", idClaims{Email: "ann@example.com", Sub: "123"}, "ann@example.com", false},
		{"sub fallback", idClaims{Sub: "123"}, "123", false},
		{"blank email falls back", idClaims{Email: "  ", Sub: "abc"}, "abc", false},
		{"neither", idClaims{}, "", true},
		{"whitespace only", idClaims{Email: " ", Sub: "\t"}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.claims.username()
			if (err != nil) != tc.wantErr {
				t.Fatalf("username() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("username() = %q, want %q", got, tc.want)
			}
		})
	}
}

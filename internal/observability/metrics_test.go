package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"healthrisk/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.PredictionMade(domain.RiskAssessment{Condition: domain.Diabetes, Tier: domain.TierHigh, Method: domain.MethodModel})
	m.PredictionMade(domain.RiskAssessment{Condition: domain.Diabetes, Tier: domain.TierHigh, Method: domain.MethodModel})
	m.ModelFallback(domain.Diabetes)
	m.ObserveRequest(http.MethodPost, "/api/predict", http.StatusOK, 5*time.Millisecond)
	m.SetModelLoaded(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("diabetes", "High", "model")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("diabetes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/predict", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelEnabled))

	m.SetModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelEnabled))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ModelFallback(domain.Diabetes)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `healthrisk_model_fallbacks_total{condition="diabetes"} 1`))
}

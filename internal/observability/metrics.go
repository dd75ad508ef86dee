// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"healthrisk/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthrisk"

// Metrics holds the service's collectors. It satisfies
// app.PredictionObserver and risk.FallbackRecorder.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	predictions  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	modelEnabled prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Risk assessments by condition, tier and scoring method.",
		}, []string{"condition", "tier", "method"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_fallbacks_total",
			Help:      "Model evaluations that failed and fell back to the heuristic.",
		}, []string{"condition"}),
		modelEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when a trained model artifact is loaded.",
		}),
	}
	reg.MustRegister(
		m.requests, m.duration, m.predictions, m.fallbacks, m.modelEnabled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// PredictionMade counts a completed assessment.
func (m *Metrics) PredictionMade(a domain.RiskAssessment) {
	m.predictions.WithLabelValues(a.Condition.String(), a.Tier.String(), a.Method).Inc()
}

// ModelFallback counts a model failure.
func (m *Metrics) ModelFallback(c domain.Condition) {
	m.fallbacks.WithLabelValues(c.String()).Inc()
}

// SetModelLoaded reports whether the trained model is in use.
func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelEnabled.Set(1)
		return
	}
	m.modelEnabled.Set(0)
}

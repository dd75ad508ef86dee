package adapthttp

import (
	"context"
	"net/http"
	"time"

	"healthrisk/internal/app"
	"healthrisk/internal/observability"

	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	predictions *app.PredictionService
	authSvc     *app.AuthService
	metrics     *observability.Metrics
	logger      *zap.Logger
	oidcConfig  OIDCConfig
	webDir      string
	db          Pinger

	modelLoaded      bool
	secureCookies    bool
	trustForwardAuth bool
}

// New creates a Server wired to the given application services.
func New(ps *app.PredictionService, as *app.AuthService, logger *zap.Logger, webDir string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{predictions: ps, authSvc: as, logger: logger, webDir: webDir}
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WithDatabase makes /api/health fail while db is unreachable.
func (s *Server) WithDatabase(db Pinger) *Server {
	s.db = db
	return s
}

// WithMetrics records request metrics and exposes them on /metrics.
func (s *Server) WithMetrics(m *observability.Metrics) *Server {
	s.metrics = m
	return s
}

// WithOIDC enables the SSO endpoints.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithModelLoaded sets the model flag reported by /api/health.
func (s *Server) WithModelLoaded(loaded bool) *Server {
	s.modelLoaded = loaded
	return s
}

// WithSecureCookies marks session cookies Secure.
func (s *Server) WithSecureCookies(secure bool) *Server {
	s.secureCookies = secure
	return s
}

// WithForwardAuth trusts the Remote-User header set by a reverse proxy.
func (s *Server) WithForwardAuth(trust bool) *Server {
	s.trustForwardAuth = trust
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	s.route(api, "/health", http.HandlerFunc(s.handleHealth))
	s.route(api, "/config", http.HandlerFunc(s.handleConfig))

	s.route(api, "/register", http.HandlerFunc(s.handleRegister))
	s.route(api, "/login", http.HandlerFunc(s.handleLogin))
	s.route(api, "/logout", http.HandlerFunc(s.handleLogout))
	s.route(api, "/me", s.requireAuth(http.HandlerFunc(s.handleMe)))

	s.route(api, "/predict", s.optionalAuth(http.HandlerFunc(s.handlePredict)))
	s.route(api, "/history", s.requireAuth(http.HandlerFunc(s.handleHistory)))

	s.route(api, "/auth/sso/login", http.HandlerFunc(s.handleSSOLogin))
	s.route(api, "/auth/sso/callback", http.HandlerFunc(s.handleSSOCallback))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.metrics != nil {
		root.Handle("/metrics", s.metrics.Handler())
	}
	root.Handle("/", s.instrument("static", spaFromDisk(s.webDir)))

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, s.instrument("/api"+pattern, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Warn("health: database unreachable", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "model": s.modelLoaded})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "model": s.modelLoaded})
}

// instrument records request count and latency under a fixed route label.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(r.Method, route, rec.status, time.Since(start))
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "healthrisk/internal/adapter/http"
	"healthrisk/internal/adapter/memory"
	natspub "healthrisk/internal/adapter/nats"
	"healthrisk/internal/adapter/postgres"
	redisstore "healthrisk/internal/adapter/redis"
	"healthrisk/internal/app"
	"healthrisk/internal/config"
	"healthrisk/internal/domain"
	"healthrisk/internal/logging"
	"healthrisk/internal/observability"
	"healthrisk/internal/risk"

	"go.uber.org/zap"
)

const (
	serviceName         = "healthrisk"
	sessionPurgeEvery   = 15 * time.Minute
	shutdownGracePeriod = 10 * time.Second
)

// store is what the service needs from a backing database.
type store interface {
	domain.UserRepository
	domain.PredictionRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("exit", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	scorerOpts := []risk.Option{risk.WithLogger(logger), risk.WithFallbackRecorder(metrics)}
	if cfg.Model.Path != "" {
		model, err := risk.LoadModel(cfg.Model.Path)
		switch {
		case err != nil && cfg.Model.Strict:
			return err
		case err != nil:
			logger.Warn("model artifact unavailable, using heuristic only", zap.Error(err))
		default:
			scorerOpts = append(scorerOpts, risk.WithModel(model))
			logger.Info("model loaded", zap.String("path", cfg.Model.Path))
		}
	}
	scorer := risk.NewScorer(scorerOpts...)
	metrics.SetModelLoaded(scorer.HasModel())

	var (
		db       store
		sessions domain.SessionRepository
		pinger   adapthttp.Pinger
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer func() { _ = pg.Close() }()
		db, sessions, pinger = pg, postgres.NewSessionRepo(pg), pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		mem := memory.New()
		db, sessions = mem, mem.NewSessionRepo()
	}

	if cfg.SessionStore == config.SessionStoreRedis {
		rc, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rc.Close() }()
		sessions = redisstore.NewSessionRepo(redisstore.NewRedisKV(rc))
	}

	authSvc := app.NewAuthService(db, sessions, cfg.SessionTTL)
	predSvc := app.NewPredictionService(scorer, db, logger).WithObserver(metrics)

	if cfg.NATS.URL != "" {
		pub, nc, err := natspub.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer nc.Close()
		predSvc.WithPublisher(pub)
		logger.Info("publishing prediction events", zap.String("subject", cfg.NATS.Subject))
	}

	srv := adapthttp.New(predSvc, authSvc, logger, cfg.WebDir).
		WithMetrics(metrics).
		WithModelLoaded(scorer.HasModel()).
		WithSecureCookies(cfg.Auth.SecureCookies).
		WithForwardAuth(cfg.Auth.TrustForwardAuth)
	if pinger != nil {
		srv.WithDatabase(pinger)
	}

	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
	}

	go purgeSessions(ctx, authSvc, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func purgeSessions(ctx context.Context, auth *app.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				logger.Warn("purge expired sessions", zap.Error(err))
			}
		}
	}
}

// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	Addr   string
	WebDir string

	DatabaseURL  string
	SessionStore string // "db" or "redis"
	SessionTTL   time.Duration

	Redis RedisConfig
	NATS  NATSConfig
	Model ModelConfig
	Log   LogConfig
	Auth  AuthConfig
	OIDC  OIDCConfig
}

// RedisConfig describes the optional Redis session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig describes the optional prediction event stream.
type NATSConfig struct {
	URL     string
	Subject string
}

// ModelConfig selects the trained model artifact.
type ModelConfig struct {
	Path string
	// Strict makes an artifact load failure fatal at startup.
	Strict bool
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig controls cookie and proxy-auth behaviour.
type AuthConfig struct {
	SecureCookies    bool
	TrustForwardAuth bool
}

// OIDCConfig configures single sign-on. It is enabled only when every field
// is set.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO is fully configured.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// Session stores.
const (
	SessionStoreDB    = "db"
	SessionStoreRedis = "redis"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Addr:         env("ADDR", ":8080"),
		WebDir:       env("WEB_DIR", "web"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SessionStore: env("SESSION_STORE", SessionStoreDB),
		Redis: RedisConfig{
			Addr:     env("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		NATS: NATSConfig{
			URL:     os.Getenv("NATS_URL"),
			Subject: env("NATS_SUBJECT", "healthrisk.prediction.recorded"),
		},
		Model: ModelConfig{
			Path: os.Getenv("MODEL_PATH"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
		OIDC: OIDCConfig{
			Issuer:       os.Getenv("OIDC_ISSUER"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
	}

	var errs []error
	cfg.SessionTTL = envDuration("SESSION_TTL", 24*time.Hour, &errs)
	cfg.Redis.DB = envInt("REDIS_DB", 0, &errs)
	cfg.Model.Strict = envBool("MODEL_STRICT", false, &errs)
	cfg.Auth.SecureCookies = envBool("SECURE_COOKIES", false, &errs)
	cfg.Auth.TrustForwardAuth = envBool("TRUST_FORWARD_AUTH", false, &errs)

	if cfg.SessionStore != SessionStoreDB && cfg.SessionStore != SessionStoreRedis {
		errs = append(errs, fmt.Errorf("SESSION_STORE: must be %q or %q, got %q", SessionStoreDB, SessionStoreRedis, cfg.SessionStore))
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL: must be positive"))
	}

	return cfg, errors.Join(errs...)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func envInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, SessionStoreDB, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "healthrisk.prediction.recorded", cfg.NATS.Subject)
	assert.False(t, cfg.Model.Strict)
	assert.False(t, cfg.OIDC.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MODEL_PATH", "/models/diabetes.json")
	t.Setenv("MODEL_STRICT", "true")
	t.Setenv("TRUST_FORWARD_AUTH", "1")
	t.Setenv("OIDC_ISSUER", "https://id.example.com")
	t.Setenv("OIDC_CLIENT_ID", "healthrisk")
	t.Setenv("OIDC_CLIENT_SECRET", "s3cret")
	t.Setenv("OIDC_REDIRECT_URL", "https://app.example.com/api/auth/sso/callback")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "/models/diabetes.json", cfg.Model.Path)
	assert.True(t, cfg.Model.Strict)
	assert.True(t, cfg.Auth.TrustForwardAuth)
	assert.True(t, cfg.OIDC.Enabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("MODEL_STRICT", "sometimes")
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("SESSION_STORE", "memcached")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"MODEL_STRICT", "REDIS_DB", "SESSION_TTL", "SESSION_STORE"} {
		assert.Contains(t, err.Error(), key)
	}
}

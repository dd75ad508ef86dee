package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"healthrisk/internal/domain"
)

const sessionPrefix = "healthrisk:session:"

var _ domain.SessionRepository = (*SessionRepo)(nil)

type sessionValue struct {
	UserID    int64     `json:"user_id"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionRepo stores sessions as JSON values whose Redis TTL matches the
// session expiry.
type SessionRepo struct {
	kv  KV
	now func() time.Time
}

// NewSessionRepo creates a session repository over kv.
func NewSessionRepo(kv KV) *SessionRepo {
	return &SessionRepo{kv: kv, now: time.Now}
}

// Create stores a new session. An already expired session is not stored.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	now := r.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(sessionValue{
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now.UTC(),
	})
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, sessionPrefix+token, string(b), ttl)
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := r.kv.Get(ctx, sessionPrefix+token)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v sessionValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		Token:     token,
		UserID:    v.UserID,
		UserAgent: v.UserAgent,
		IP:        v.IP,
		ExpiresAt: v.ExpiresAt,
		CreatedAt: v.CreatedAt,
	}, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.kv.Del(ctx, sessionPrefix+token)
}

// DeleteExpired removes sessions whose recorded expiry has passed but whose
// key is still present.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	keys, err := r.kv.ScanKeys(ctx, sessionPrefix+"*")
	if err != nil {
		return err
	}
	now := r.now()
	var stale []string
	for _, key := range keys {
		raw, err := r.kv.Get(ctx, key)
		if errors.Is(err, ErrMiss) {
			continue
		}
		if err != nil {
			return err
		}
		var v sessionValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil || now.After(v.ExpiresAt) {
			stale = append(stale, key)
		}
	}
	return r.kv.Del(ctx, stale...)
}

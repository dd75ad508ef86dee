package redis

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory KV that ignores TTLs.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func TestSessionRepo_CreateAndGet(t *testing.T) {
	kv := newFakeKV()
	repo := NewSessionRepo(kv)
	ctx := context.Background()
	expires := time.Now().Add(2 * time.Hour)

	require.NoError(t, repo.Create(ctx, 9, "tok", "agent/2", "192.0.2.1", expires))

	ttl := kv.ttls[sessionPrefix+"tok"]
	assert.InDelta(t, (2 * time.Hour).Seconds(), ttl.Seconds(), 5)

	s, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, int64(9), s.UserID)
	assert.Equal(t, "agent/2", s.UserAgent)
	assert.Equal(t, "192.0.2.1", s.IP)
	assert.True(t, s.ExpiresAt.Equal(expires))
}

func TestSessionRepo_Missing(t *testing.T) {
	repo := NewSessionRepo(newFakeKV())
	s, err := repo.GetByToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepo_Delete(t *testing.T) {
	repo := NewSessionRepo(newFakeKV())
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, 1, "tok", "ua", "", time.Now().Add(time.Hour)))
	require.NoError(t, repo.Delete(ctx, "tok"))

	s, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	kv := newFakeKV()
	repo := NewSessionRepo(kv)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, 1, "old", "ua", "", time.Now().Add(time.Minute)))
	require.NoError(t, repo.Create(ctx, 1, "fresh", "ua", "", time.Now().Add(time.Hour)))
	kv.data[sessionPrefix+"junk"] = "{not json"

	repo.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	require.NoError(t, repo.DeleteExpired(ctx))

	_, err := kv.Get(ctx, sessionPrefix+"old")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = kv.Get(ctx, sessionPrefix+"junk")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = kv.Get(ctx, sessionPrefix+"fresh")
	assert.NoError(t, err)
}

func TestSessionRepo_CreateExpiredIsNoop(t *testing.T) {
	kv := newFakeKV()
	repo := NewSessionRepo(kv)
	require.NoError(t, repo.Create(context.Background(), 1, "tok", "ua", "", time.Now().Add(-time.Second)))
	assert.Empty(t, kv.data)
}

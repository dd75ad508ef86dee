// Package redis implements the session repository on Redis.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// ErrMiss is returned by KV.Get for an absent key.
var ErrMiss = errors.New("cache miss")

// KV is the subset of Redis the session store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client and pings it.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	c := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

var _ KV = (*RedisKV)(nil)

// RedisKV adapts a go-redis client to KV.
type RedisKV struct {
	c *goredis.Client
}

// NewRedisKV wraps c.
func NewRedisKV(c *goredis.Client) *RedisKV { return &RedisKV{c: c} }

// Get returns the value at key, or ErrMiss when it is absent.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

// Set stores value at key with the given TTL.
func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// Del removes keys. An empty key list is a no-op.
func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

// ScanKeys returns every key matching pattern, walking the SCAN cursor.
func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts failed attempts per key inside a fixed window.
type Limiter interface {
	// Allow reports whether key is still under the failure budget.
	Allow(ctx context.Context, key string) (bool, error)
	// RecordFailure counts one failed attempt against key.
	RecordFailure(ctx context.Context, key string) error
}

type redisLimiter struct {
	client      redis.Cmdable
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// NewRedisLimiter returns a fixed-window limiter backed by INCR and EXPIRE NX.
func NewRedisLimiter(client redis.Cmdable, prefix string, maxAttempts int, window time.Duration) Limiter {
	return &redisLimiter{client: client, prefix: prefix, maxAttempts: int64(maxAttempts), window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return count < l.maxAttempts, nil
}

func (l *redisLimiter) RecordFailure(ctx context.Context, key string) error {
	k := l.key(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	return err
}

func (l *redisLimiter) key(key string) string {
	return l.prefix + ":" + key
}

// Noop never limits. Used when rate limiting is disabled or Redis is absent.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

func (Noop) RecordFailure(context.Context, string) error { return nil }

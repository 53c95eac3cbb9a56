package persistence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Redis holds the client backing the login/registration rate limiter.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client. An unreachable server is logged, not fatal: the
// limiter fails open and readiness reports the outage.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis; rate limiting will fail open", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Health pings Redis and reports pool usage.
func (r *Redis) Health(ctx context.Context) (DependencyHealth, error) {
	if r == nil || r.Client == nil {
		return DependencyHealth{Status: "down", Error: ErrNotConfigured.Error()}, ErrNotConfigured
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return DependencyHealth{Status: "down", Error: err.Error()}, err
	}
	stats := r.Client.PoolStats()
	return DependencyHealth{Status: "ok", TotalConns: int32(stats.TotalConns), IdleConns: int32(stats.IdleConns)}, nil
}

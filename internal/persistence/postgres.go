package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

const connectTimeout = 5 * time.Second

// ErrNotConfigured is returned by health checks on a store that was never connected.
var ErrNotConfigured = errors.New("not configured")

// DependencyHealth is one entry of the readiness report.
type DependencyHealth struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	TotalConns int32  `json:"total_conns,omitempty"`
	IdleConns  int32  `json:"idle_conns,omitempty"`
}

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool when DSN is provided. An empty DSN
// yields a Postgres with a nil pool; callers that need the database check PoolHandle.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres",
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Health pings the pool and reports its connection counts.
func (p *Postgres) Health(ctx context.Context) (DependencyHealth, error) {
	if p == nil || p.Pool == nil {
		return DependencyHealth{Status: "down", Error: ErrNotConfigured.Error()}, ErrNotConfigured
	}
	if err := p.Pool.Ping(ctx); err != nil {
		return DependencyHealth{Status: "down", Error: err.Error()}, err
	}
	stat := p.Pool.Stat()
	return DependencyHealth{Status: "ok", TotalConns: stat.TotalConns(), IdleConns: stat.IdleConns()}, nil
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

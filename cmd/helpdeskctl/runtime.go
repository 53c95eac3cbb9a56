package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/app"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// runtime is the connected state a command needs.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	pg        *persistence.Postgres
	container *app.Container
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.PoolHandle() == nil {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	container := app.NewContainer(cfg, app.NewRepositories(pg.PoolHandle()), logger, observability.NewMetrics())
	return &runtime{cfg: cfg, logger: logger, pg: pg, container: container}, nil
}

func (r *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.container.Shutdown(ctx)
	r.pg.Close()
	_ = r.logger.Sync()
}

package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

const readinessTimeout = 2 * time.Second

// HealthChecker is a dependency checked by the readiness endpoint.
type HealthChecker interface {
	Health(ctx context.Context) (persistence.DependencyHealth, error)
}

// HealthHandler serves the liveness, readiness and metrics endpoints.
type HealthHandler struct {
	serviceName string
	version     string
	checks      map[string]HealthChecker
	metrics     *observability.Metrics
	started     time.Time
}

// NewHealthHandler returns a new handler instance. checks is keyed by dependency name.
func NewHealthHandler(serviceName, version string, checks map[string]HealthChecker, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, checks: checks, metrics: metrics, started: time.Now()}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "alive",
		"service":        h.serviceName,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Ready checks every dependency; any failure turns the response into a 503.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]persistence.DependencyHealth, len(names))
	ready := true
	for _, name := range names {
		status, err := h.checks[name].Health(ctx)
		if err != nil {
			ready = false
		}
		deps[name] = status
	}

	if ready {
		return c.JSON(fiber.Map{"status": "ready", "dependencies": deps})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":      "DEPENDENCY_UNAVAILABLE",
			"message":   "one or more dependencies unavailable",
			"details":   deps,
			"retryable": true,
		},
	})
}

// Metrics exposes the in-memory request and domain event counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

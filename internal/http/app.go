package http

import (
	"context"

	"eclipse_backend/internal/events"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/logger"
)

// RouterConfig is the subset of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health. The pgx pool adapter implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router once Postgres, Redis and the
// modules are up.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}

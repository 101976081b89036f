// Package clients provides the client contact records module.
package clients

import (
	"eclipse_backend/internal/clients/handler"
	"eclipse_backend/internal/clients/repository"
	"eclipse_backend/internal/clients/service"
	"eclipse_backend/internal/events"
	apphttp "eclipse_backend/internal/http"
	pipelinetransport "eclipse_backend/internal/pipeline/transport"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the clients domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new clients module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.ClientsConfig) (*Module, error) {
	// List filters accept pipeline statuses.
	if err := pipelinetransport.RegisterValidations(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, cfg.GetDefaultPhoneRegion())
	svc.SetEventBus(eventBus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "clients"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/clients"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

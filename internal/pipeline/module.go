// Package pipeline provides the client sales-pipeline module: status inference,
// business-event transitions and funnel KPIs.
package pipeline

import (
	"context"

	"eclipse_backend/internal/events"
	apphttp "eclipse_backend/internal/http"
	"eclipse_backend/internal/pipeline/handler"
	"eclipse_backend/internal/pipeline/repository"
	"eclipse_backend/internal/pipeline/service"
	"eclipse_backend/internal/pipeline/transport"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/logger"
	"eclipse_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the pipeline domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule creates a new pipeline module with all dependencies wired.
// cache may be nil to disable KPI caching.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cache service.KPICache, cfg config.PipelineConfig, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, log)
	svc.SetEventBus(eventBus)
	svc.SetReportingLocation(cfg.GetReportingLocation())
	if cache != nil {
		svc.SetKPICache(cache)
	}

	h := handler.New(svc, val)
	h.SetManualStatusRole(cfg.GetManualStatusRole())

	return &Module{
		handler: h,
		service: svc,
		log:     log,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// SetSyncEnqueuer enables asynchronous tenant resyncs.
func (m *Module) SetSyncEnqueuer(enqueuer handler.SyncEnqueuer) {
	m.handler.SetSyncEnqueuer(enqueuer)
}

// RegisterHandlers subscribes the module to events that change the funnel
// without going through a status write, and logs every stored transition.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ClientCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ClientCreated)
		if !ok {
			return nil
		}
		m.service.InvalidateKPIs(ctx, e.TenantID)
		return nil
	}))

	bus.Subscribe(events.ClientPipelineStatusChanged{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.ClientPipelineStatusChanged)
		if !ok {
			return nil
		}
		m.log.WithTenant(e.TenantID.String()).PipelineStatusChanged(e.ClientID, e.PreviousStatus, e.NewStatus, e.Source)
		return nil
	}))
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/pipeline"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

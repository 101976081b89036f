package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"eclipse_backend/internal/events"
	"eclipse_backend/internal/pipeline/domain"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/logger"
	"eclipse_backend/platform/validator"

	"github.com/google/uuid"
)

type countingCache struct {
	invalidated []uuid.UUID
}

func (c *countingCache) Get(context.Context, uuid.UUID) (domain.KPIs, bool, error) {
	return domain.KPIs{}, false, nil
}

func (c *countingCache) Set(context.Context, uuid.UUID, domain.KPIs) error { return nil }

func (c *countingCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.invalidated = append(c.invalidated, tenantID)
	return nil
}

func TestClientCreatedInvalidatesKPICache(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Discard())
	cache := &countingCache{}

	m, err := NewModule(nil, bus, validator.New(), cache, &config.Config{}, logger.Discard())
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}
	m.RegisterHandlers(bus)

	tenantID := uuid.New()
	if err := bus.PublishSync(context.Background(), events.ClientCreated{
		BaseEvent:  events.NewBaseEvent(),
		TenantID:   tenantID,
		DocumentID: "c1",
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(cache.invalidated) != 1 || cache.invalidated[0] != tenantID {
		t.Fatalf("expected cache invalidation for tenant, got %v", cache.invalidated)
	}
}

func TestNewModuleWithoutCache(t *testing.T) {
	m, err := NewModule(nil, events.NewInMemoryBus(logger.Discard()), validator.New(), nil, &config.Config{}, logger.Discard())
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}
	if m.Name() != "pipeline" {
		t.Fatalf("unexpected module name %q", m.Name())
	}
	// no cache: invalidation is a no-op
	m.Service().InvalidateKPIs(context.Background(), uuid.New())
}

func TestStatusChangeIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("production", &buf)
	bus := events.NewInMemoryBus(logger.Discard())

	m, err := NewModule(nil, bus, validator.New(), nil, &config.Config{}, log)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}
	m.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), events.ClientPipelineStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		TenantID:       uuid.New(),
		ClientID:       "c1",
		PreviousStatus: "new",
		NewStatus:      "quote_sent",
		Source:         events.StatusSourceAction,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"pipeline_status_changed"`, `"client_id":"c1"`, `"to":"quote_sent"`, `"source":"action"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output, got %s", want, out)
		}
	}
}

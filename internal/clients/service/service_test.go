package service

import (
	"context"
	"testing"
	"time"

	"eclipse_backend/internal/clients/repository"
	"eclipse_backend/internal/clients/transport"
	"eclipse_backend/internal/events"
	"eclipse_backend/platform/apperr"

	"github.com/google/uuid"
)

type memoryRepo struct {
	clients    map[string]repository.Client
	lastParams repository.ListParams
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: make(map[string]repository.Client)}
}

func (r *memoryRepo) Create(_ context.Context, c repository.Client) error {
	if _, exists := r.clients[c.DocumentID]; exists {
		return apperr.Conflict("duplicate")
	}
	r.clients[c.DocumentID] = c
	return nil
}

func (r *memoryRepo) GetByDocumentID(_ context.Context, _ uuid.UUID, documentID string) (repository.Client, error) {
	c, ok := r.clients[documentID]
	if !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	return c, nil
}

func (r *memoryRepo) List(_ context.Context, params repository.ListParams) ([]repository.Client, int, error) {
	r.lastParams = params
	out := make([]repository.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(_ context.Context, c repository.Client) error {
	if _, ok := r.clients[c.DocumentID]; !ok {
		return apperr.NotFound("client not found")
	}
	r.clients[c.DocumentID] = c
	return nil
}

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *capturingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *capturingBus) Subscribe(string, events.Handler) {}

func TestCreateNormalizesAndStartsAsNew(t *testing.T) {
	repo := newMemoryRepo()
	bus := &capturingBus{}
	svc := New(repo, "FR")
	svc.SetEventBus(bus)
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateClientRequest{
		DocumentID: "doc-1",
		Name:       "  Atelier Dupont ",
		Email:      "Contact@Dupont.FR",
		Phone:      "06 12 34 56 78",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != "Atelier Dupont" {
		t.Fatalf("expected trimmed name, got %q", resp.Name)
	}
	if resp.Email == nil || *resp.Email != "contact@dupont.fr" {
		t.Fatalf("expected lowercased email, got %v", resp.Email)
	}
	if resp.Phone == nil || *resp.Phone != "+33612345678" {
		t.Fatalf("expected E.164 phone, got %v", resp.Phone)
	}
	if resp.PipelineStatus != "new" || resp.PipelineStatusLabel != "Nouveau" {
		t.Fatalf("expected new status, got %s (%s)", resp.PipelineStatus, resp.PipelineStatusLabel)
	}
	if resp.Company != nil {
		t.Fatalf("expected empty company to be nil, got %v", *resp.Company)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected ClientCreated event, got %d events", len(bus.published))
	}
	if _, ok := bus.published[0].(events.ClientCreated); !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
}

func TestCreateGeneratesDocumentID(t *testing.T) {
	svc := New(newMemoryRepo(), "FR")

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateClientRequest{Name: "Sans id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(resp.DocumentID); err != nil {
		t.Fatalf("expected generated uuid document id, got %q", resp.DocumentID)
	}
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	svc := New(newMemoryRepo(), "FR")
	req := transport.CreateClientRequest{DocumentID: "dup", Name: "A"}
	if _, err := svc.Create(context.Background(), uuid.New(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), req); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateKeepsPipelineStatus(t *testing.T) {
	repo := newMemoryRepo()
	won := "won"
	repo.clients["c1"] = repository.Client{DocumentID: "c1", Name: "Old", PipelineStatus: &won}
	svc := New(repo, "FR")

	name := "New name"
	empty := ""
	resp, err := svc.Update(context.Background(), uuid.New(), "c1", transport.UpdateClientRequest{Name: &name, Company: &empty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != "New name" || resp.PipelineStatus != "won" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), "missing", transport.UpdateClientRequest{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	repo := newMemoryRepo()
	for _, id := range []string{"a", "b", "c"} {
		repo.clients[id] = repository.Client{DocumentID: id}
	}
	svc := New(repo, "FR")

	resp, err := svc.List(context.Background(), uuid.New(), transport.ListClientsRequest{
		Page: 2, PageSize: 500, PipelineStatus: "lost",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastParams.Limit != maxPageSize || repo.lastParams.Offset != maxPageSize {
		t.Fatalf("expected clamped page size, got limit=%d offset=%d", repo.lastParams.Limit, repo.lastParams.Offset)
	}
	if repo.lastParams.PipelineStatus == nil || *repo.lastParams.PipelineStatus != "lost" {
		t.Fatal("expected pipeline status filter to be forwarded")
	}
	if resp.Total != 3 || resp.TotalPages != 1 {
		t.Fatalf("unexpected totals: %+v", resp)
	}
}

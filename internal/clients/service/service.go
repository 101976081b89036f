package service

import (
	"context"
	"strings"
	"time"

	"eclipse_backend/internal/clients/repository"
	"eclipse_backend/internal/clients/transport"
	"eclipse_backend/internal/events"
	"eclipse_backend/internal/pipeline/domain"
	"eclipse_backend/platform/phone"
	"eclipse_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository is the storage used by the clients service.
type Repository interface {
	Create(ctx context.Context, c repository.Client) error
	GetByDocumentID(ctx context.Context, tenantID uuid.UUID, documentID string) (repository.Client, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Client, int, error)
	Update(ctx context.Context, c repository.Client) error
}

// Service provides business logic for client contact records
type Service struct {
	repo        Repository
	eventBus    events.Bus // optional
	phoneRegion string
	now         func() time.Time
}

// New creates a new clients service. phoneRegion is the ISO region used for
// numbers written without a country prefix.
func New(repo Repository, phoneRegion string) *Service {
	return &Service{repo: repo, phoneRegion: phoneRegion, now: time.Now}
}

// SetEventBus injects the event bus.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// Create stores a new client. New clients enter the pipeline as "new".
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req transport.CreateClientRequest) (*transport.ClientResponse, error) {
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = uuid.NewString()
	}

	now := s.now()
	status := string(domain.StatusNew)
	client := repository.Client{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DocumentID:     documentID,
		Name:           sanitize.Text(req.Name),
		Email:          nilIfEmpty(strings.ToLower(req.Email)),
		Phone:          nilIfEmpty(phone.NormalizeE164(req.Phone, s.phoneRegion)),
		Company:        nilIfEmpty(sanitize.Text(req.Company)),
		PipelineStatus: &status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.ClientCreated{
			BaseEvent:  events.NewBaseEvent(),
			TenantID:   tenantID,
			DocumentID: client.DocumentID,
			Name:       client.Name,
		})
	}

	resp := toResponse(client)
	return &resp, nil
}

// Get returns one client by document id
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, documentID string) (*transport.ClientResponse, error) {
	client, err := s.repo.GetByDocumentID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(client)
	return &resp, nil
}

// List returns a page of clients
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListClientsRequest) (*transport.ClientListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListParams{
		TenantID: tenantID,
		Search:   strings.TrimSpace(req.Search),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if req.PipelineStatus != "" {
		status := req.PipelineStatus
		params.PipelineStatus = &status
	}

	clients, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.ClientResponse, len(clients))
	for i, c := range clients {
		items[i] = toResponse(c)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &transport.ClientListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update changes contact fields. The pipeline status is not editable here.
func (s *Service) Update(ctx context.Context, tenantID uuid.UUID, documentID string, req transport.UpdateClientRequest) (*transport.ClientResponse, error) {
	client, err := s.repo.GetByDocumentID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		client.Name = sanitize.Text(*req.Name)
	}
	if req.Email != nil {
		client.Email = nilIfEmpty(strings.ToLower(*req.Email))
	}
	if req.Phone != nil {
		client.Phone = nilIfEmpty(phone.NormalizeE164(*req.Phone, s.phoneRegion))
	}
	if req.Company != nil {
		client.Company = nilIfEmpty(sanitize.Text(*req.Company))
	}
	client.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}

	resp := toResponse(client)
	return &resp, nil
}

func toResponse(c repository.Client) transport.ClientResponse {
	status := domain.StatusNew
	if c.PipelineStatus != nil && *c.PipelineStatus != "" {
		status = domain.Status(*c.PipelineStatus)
	}
	return transport.ClientResponse{
		ID:                  c.ID,
		DocumentID:          c.DocumentID,
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		Company:             c.Company,
		PipelineStatus:      string(status),
		PipelineStatusLabel: domain.PipelineStatusLabel(status),
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func nilIfEmpty(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

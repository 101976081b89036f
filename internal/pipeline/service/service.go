package service

import (
	"context"
	"fmt"
	"time"

	"eclipse_backend/internal/events"
	"eclipse_backend/internal/pipeline/domain"
	"eclipse_backend/platform/apperr"
	"eclipse_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repository is the storage the pipeline service reads snapshots from and
// writes statuses to.
type Repository interface {
	ListClients(ctx context.Context, tenantID uuid.UUID) ([]domain.Client, error)
	GetClient(ctx context.Context, tenantID uuid.UUID, documentID string) (domain.Client, error)
	ListQuotes(ctx context.Context, tenantID uuid.UUID) ([]domain.Quote, error)
	ListProjects(ctx context.Context, tenantID uuid.UUID) ([]domain.Project, error)
	ClientsWithEmails(ctx context.Context, tenantID uuid.UUID) (map[string]bool, error)
	HasEmailsSent(ctx context.Context, tenantID uuid.UUID, documentID string) (bool, error)
	UpdatePipelineStatus(ctx context.Context, tenantID uuid.UUID, documentID string, status domain.Status) error
}

// KPICache is an optional read-through cache for funnel KPIs.
type KPICache interface {
	Get(ctx context.Context, tenantID uuid.UUID) (domain.KPIs, bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, kpis domain.KPIs) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// Service provides pipeline status synchronization and funnel analytics.
type Service struct {
	repo     Repository
	log      *logger.Logger
	eventBus events.Bus     // optional
	cache    KPICache       // optional
	location *time.Location // reporting timezone for the monthly series
	now      func() time.Time
}

// New creates a new pipeline service
func New(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		location: time.UTC,
		now:      time.Now,
	}
}

// SetEventBus injects the event bus used to publish status changes.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// SetKPICache injects the KPI cache.
func (s *Service) SetKPICache(cache KPICache) {
	s.cache = cache
}

// SetReportingLocation sets the timezone that defines calendar months for KPIs.
func (s *Service) SetReportingLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// StatusChange is the outcome of a single client status operation.
type StatusChange struct {
	ClientID string
	Previous *domain.Status
	Status   domain.Status
	Updated  bool
	// Skipped is set when the stored status is manual and was left untouched.
	Skipped bool
}

// SyncReport summarizes a tenant-wide resync.
type SyncReport struct {
	Checked int
	Updated int
	Skipped int
	Failed  int
}

// StatusLabel pairs a status with its display label.
type StatusLabel struct {
	Status domain.Status
	Label  string
}

// Labels returns every status with its French label, in funnel order.
func (s *Service) Labels() []StatusLabel {
	statuses := domain.AllStatuses()
	out := make([]StatusLabel, len(statuses))
	for i, st := range statuses {
		out[i] = StatusLabel{Status: st, Label: domain.PipelineStatusLabel(st)}
	}
	return out
}

// SyncClient recomputes one client's status from the tenant's quotes, projects
// and email history and persists it when it changed. Manual statuses are kept.
func (s *Service) SyncClient(ctx context.Context, tenantID uuid.UUID, clientID string) (StatusChange, error) {
	var (
		client    domain.Client
		quotes    []domain.Quote
		projects  []domain.Project
		hasEmails bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = s.repo.GetClient(gctx, tenantID, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = s.repo.ListQuotes(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.repo.ListProjects(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		hasEmails, err = s.repo.HasEmailsSent(gctx, tenantID, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return StatusChange{}, err
	}

	return s.applyInference(ctx, tenantID, client, quotes, projects, hasEmails)
}

// SyncTenant recomputes the status of every client of the tenant. A failure on
// one client is logged and counted without stopping the others.
func (s *Service) SyncTenant(ctx context.Context, tenantID uuid.UUID) (SyncReport, error) {
	var (
		clients   []domain.Client
		quotes    []domain.Quote
		projects  []domain.Project
		withEmail map[string]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.repo.ListClients(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = s.repo.ListQuotes(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.repo.ListProjects(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		withEmail, err = s.repo.ClientsWithEmails(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return SyncReport{}, fmt.Errorf("load pipeline snapshot: %w", err)
	}

	quotesByClient := indexQuotes(quotes)
	projectsByClient := indexProjects(projects)

	var report SyncReport
	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		change, err := s.applyInference(ctx, tenantID, client,
			quotesByClient[client.DocumentID], projectsByClient[client.DocumentID], withEmail[client.DocumentID])
		switch {
		case err != nil:
			report.Failed++
			s.log.WithTenant(tenantID.String()).Error("pipeline sync failed for client",
				"client_id", client.DocumentID, "error", err)
		case change.Skipped:
			report.Skipped++
		case change.Updated:
			report.Updated++
		}
	}

	s.log.WithTenant(tenantID.String()).Info("pipeline tenant sync completed",
		"checked", report.Checked, "updated", report.Updated, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// RecordAction applies a business event to a client. The event's implied status
// is merged with the stored one by priority, so the pipeline never moves
// backwards. Manual statuses are left untouched.
func (s *Service) RecordAction(ctx context.Context, tenantID uuid.UUID, clientID string, action domain.Action) (StatusChange, error) {
	client, err := s.repo.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{ClientID: clientID, Previous: client.PipelineStatus}
	if !domain.ShouldAutoUpdateStatus(client.PipelineStatus) {
		change.Status = *client.PipelineStatus
		change.Skipped = true
		return change, nil
	}

	target := domain.StatusFromAction(action)
	change.Status = domain.GetMostPrioritaryStatus(client.PipelineStatus, target)
	if sameStatus(client.PipelineStatus, change.Status) {
		return change, nil
	}

	if err := s.writeStatus(ctx, tenantID, change, events.StatusSourceAction); err != nil {
		return StatusChange{}, err
	}
	change.Updated = true
	return change, nil
}

// SetManualStatus stores an explicit user choice, bypassing inference and priority.
func (s *Service) SetManualStatus(ctx context.Context, tenantID uuid.UUID, clientID string, status domain.Status) (StatusChange, error) {
	if !status.IsValid() {
		return StatusChange{}, apperr.Validation("unknown pipeline status").WithDetails(string(status))
	}

	client, err := s.repo.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{ClientID: clientID, Previous: client.PipelineStatus, Status: status}
	if sameStatus(client.PipelineStatus, status) {
		return change, nil
	}

	if err := s.writeStatus(ctx, tenantID, change, events.StatusSourceManual); err != nil {
		return StatusChange{}, err
	}
	change.Updated = true
	return change, nil
}

// KPIs returns the tenant's funnel aggregate, served from cache when fresh.
func (s *Service) KPIs(ctx context.Context, tenantID uuid.UUID) (domain.KPIs, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, tenantID)
		if err != nil {
			s.log.Warn("kpi cache read failed", "tenant_id", tenantID.String(), "error", err)
		} else if ok {
			return cached, nil
		}
	}

	var (
		clients  []domain.Client
		quotes   []domain.Quote
		projects []domain.Project
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.repo.ListClients(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = s.repo.ListQuotes(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.repo.ListProjects(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.KPIs{}, fmt.Errorf("load pipeline snapshot: %w", err)
	}

	kpis := domain.CalculatePipelineKPIsAt(clients, quotes, projects, s.now().In(s.location))

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenantID, kpis); err != nil {
			s.log.Warn("kpi cache write failed", "tenant_id", tenantID.String(), "error", err)
		}
	}
	return kpis, nil
}

// InvalidateKPIs drops the cached aggregate of the tenant.
func (s *Service) InvalidateKPIs(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		s.log.Warn("kpi cache invalidation failed", "tenant_id", tenantID.String(), "error", err)
	}
}

func (s *Service) applyInference(ctx context.Context, tenantID uuid.UUID, client domain.Client, quotes []domain.Quote, projects []domain.Project, hasEmails bool) (StatusChange, error) {
	change := StatusChange{ClientID: client.DocumentID, Previous: client.PipelineStatus}
	if !domain.ShouldAutoUpdateStatus(client.PipelineStatus) {
		change.Status = *client.PipelineStatus
		change.Skipped = true
		return change, nil
	}

	change.Status = domain.CalculateClientPipelineStatus(client, quotes, projects, hasEmails)
	if sameStatus(client.PipelineStatus, change.Status) {
		return change, nil
	}

	if err := s.writeStatus(ctx, tenantID, change, events.StatusSourceInference); err != nil {
		return StatusChange{}, err
	}
	change.Updated = true
	return change, nil
}

func (s *Service) writeStatus(ctx context.Context, tenantID uuid.UUID, change StatusChange, source string) error {
	if err := s.repo.UpdatePipelineStatus(ctx, tenantID, change.ClientID, change.Status); err != nil {
		return err
	}

	s.InvalidateKPIs(ctx, tenantID)

	previous := ""
	if change.Previous != nil {
		previous = string(*change.Previous)
	}
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.ClientPipelineStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			TenantID:       tenantID,
			ClientID:       change.ClientID,
			PreviousStatus: previous,
			NewStatus:      string(change.Status),
			Source:         source,
		})
	}
	return nil
}

func sameStatus(current *domain.Status, next domain.Status) bool {
	return current != nil && *current == next
}

// indexQuotes groups quotes under each distinct client reference they carry.
func indexQuotes(quotes []domain.Quote) map[string][]domain.Quote {
	index := make(map[string][]domain.Quote)
	for _, q := range quotes {
		for _, id := range q.ClientIDs() {
			index[id] = append(index[id], q)
		}
	}
	return index
}

func indexProjects(projects []domain.Project) map[string][]domain.Project {
	index := make(map[string][]domain.Project)
	for _, p := range projects {
		if p.ClientID != "" {
			index[p.ClientID] = append(index[p.ClientID], p)
		}
	}
	return index
}

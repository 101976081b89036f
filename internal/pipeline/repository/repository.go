package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eclipse_backend/internal/pipeline/domain"
	"eclipse_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientNotFoundMsg = "client not found"

// Repository reads the tenant's pipeline snapshot and writes client statuses.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pipeline repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListClients returns every client of the tenant.
func (r *Repository) ListClients(ctx context.Context, tenantID uuid.UUID) ([]domain.Client, error) {
	query := `
		SELECT document_id, pipeline_status
		FROM clients WHERE tenant_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var (
			documentID string
			status     *string
		)
		if err := rows.Scan(&documentID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, domain.Client{DocumentID: documentID, PipelineStatus: toStatus(status)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

// GetClient returns one client by document id.
func (r *Repository) GetClient(ctx context.Context, tenantID uuid.UUID, documentID string) (domain.Client, error) {
	var status *string
	query := `SELECT pipeline_status FROM clients WHERE tenant_id = $1 AND document_id = $2`

	err := r.pool.QueryRow(ctx, query, tenantID, documentID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, apperr.NotFound(clientNotFoundMsg)
		}
		return domain.Client{}, fmt.Errorf("failed to get client: %w", err)
	}
	return domain.Client{DocumentID: documentID, PipelineStatus: toStatus(status)}, nil
}

// ListQuotes returns every facture of the tenant, invoices included. Callers
// filter on document type.
func (r *Repository) ListQuotes(ctx context.Context, tenantID uuid.UUID) ([]domain.Quote, error) {
	query := `
		SELECT document_id, document_type, COALESCE(quote_status, ''), number::float8, date,
			COALESCE(client_document_id, ''), COALESCE(legacy_client_document_id, '')
		FROM factures WHERE tenant_id = $1`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query factures: %w", err)
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		var (
			q    domain.Quote
			date *time.Time
		)
		if err := rows.Scan(
			&q.DocumentID, &q.DocumentType, &q.QuoteStatus, &q.Number, &date,
			&q.ClientID, &q.ClientDocumentID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan facture: %w", err)
		}
		q.Date = date
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate factures: %w", err)
	}
	return quotes, nil
}

// ListProjects returns every project of the tenant.
func (r *Repository) ListProjects(ctx context.Context, tenantID uuid.UUID) ([]domain.Project, error) {
	query := `
		SELECT document_id, project_status, COALESCE(client_document_id, '')
		FROM projects WHERE tenant_id = $1`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.DocumentID, &p.ProjectStatus, &p.ClientID); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// ClientsWithEmails returns the set of client document ids with at least one
// email history entry.
func (r *Repository) ClientsWithEmails(ctx context.Context, tenantID uuid.UUID) (map[string]bool, error) {
	query := `
		SELECT DISTINCT client_document_id
		FROM email_history
		WHERE tenant_id = $1 AND client_document_id IS NOT NULL`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query email history: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan email history: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate email history: %w", err)
	}
	return result, nil
}

// HasEmailsSent reports whether the client has any email history entry.
func (r *Repository) HasEmailsSent(ctx context.Context, tenantID uuid.UUID, documentID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM email_history WHERE tenant_id = $1 AND client_document_id = $2)`
	if err := r.pool.QueryRow(ctx, query, tenantID, documentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email history: %w", err)
	}
	return exists, nil
}

// UpdatePipelineStatus stores status on the client.
func (r *Repository) UpdatePipelineStatus(ctx context.Context, tenantID uuid.UUID, documentID string, status domain.Status) error {
	query := `UPDATE clients SET pipeline_status = $3, updated_at = $4 WHERE tenant_id = $1 AND document_id = $2`
	result, err := r.pool.Exec(ctx, query, tenantID, documentID, string(status), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update pipeline status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(clientNotFoundMsg)
	}
	return nil
}

func toStatus(raw *string) *domain.Status {
	if raw == nil || *raw == "" {
		return nil
	}
	s := domain.Status(*raw)
	return &s
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eclipse_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client is the database model for a client contact record
type Client struct {
	ID             uuid.UUID `db:"id"`
	TenantID       uuid.UUID `db:"tenant_id"`
	DocumentID     string    `db:"document_id"`
	Name           string    `db:"name"`
	Email          *string   `db:"email"`
	Phone          *string   `db:"phone"`
	Company        *string   `db:"company"`
	PipelineStatus *string   `db:"pipeline_status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ListParams contains parameters for listing clients
type ListParams struct {
	TenantID       uuid.UUID
	PipelineStatus *string
	Search         string
	Limit          int
	Offset         int
}

const (
	clientNotFoundMsg   = "client not found"
	duplicateClientMsg  = "a client with this document id already exists"
	uniqueViolationCode = "23505"
	clientColumns       = `id, tenant_id, document_id, name, email, phone, company, pipeline_status, created_at, updated_at`
)

// Repository provides database operations for clients
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new clients repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new client
func (r *Repository) Create(ctx context.Context, c Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.TenantID, c.DocumentID, c.Name, c.Email, c.Phone, c.Company, c.PipelineStatus,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperr.Conflict(duplicateClientMsg)
		}
		return fmt.Errorf("failed to insert client: %w", err)
	}
	return nil
}

// GetByDocumentID retrieves a client scoped to tenant
func (r *Repository) GetByDocumentID(ctx context.Context, tenantID uuid.UUID, documentID string) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND document_id = $2`

	c, err := scanClient(r.pool.QueryRow(ctx, query, tenantID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMsg)
		}
		return Client{}, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// List returns a page of clients and the total count matching the filters
func (r *Repository) List(ctx context.Context, params ListParams) ([]Client, int, error) {
	where := "tenant_id = $1"
	args := []any{params.TenantID}
	argIdx := 2

	if params.PipelineStatus != nil {
		where += fmt.Sprintf(" AND COALESCE(pipeline_status, 'new') = $%d", argIdx)
		args = append(args, *params.PipelineStatus)
		argIdx++
	}
	if params.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		clientColumns, where, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, total, nil
}

// Update rewrites the contact fields of a client. The pipeline status is owned
// by the pipeline module and left untouched.
func (r *Repository) Update(ctx context.Context, c Client) error {
	query := `
		UPDATE clients SET name = $3, email = $4, phone = $5, company = $6, updated_at = $7
		WHERE tenant_id = $1 AND document_id = $2`

	result, err := r.pool.Exec(ctx, query, c.TenantID, c.DocumentID, c.Name, c.Email, c.Phone, c.Company, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(clientNotFoundMsg)
	}
	return nil
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.TenantID, &c.DocumentID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.PipelineStatus,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

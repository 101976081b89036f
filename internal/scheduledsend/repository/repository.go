package repository

import (
	"context"
	"fmt"
	"time"

	"eclipse_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Item statuses shared by scheduled emails and newsletters.
const (
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

// ScheduledEmail is a one-off email due at ScheduledAt.
type ScheduledEmail struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	ClientDocumentID *string
	Recipient        string
	Subject          string
	HTMLBody         string
	AttachmentKeys   []string
	ScheduledAt      time.Time
}

// Newsletter is a bulk email due at ScheduledAt.
type Newsletter struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Subject     string
	HTMLBody    string
	Recipients  []string
	ScheduledAt time.Time
}

// EmailHistoryEntry records a delivered email for a client.
type EmailHistoryEntry struct {
	TenantID         uuid.UUID
	ClientDocumentID *string
	Recipient        string
	Subject          string
	SentAt           time.Time
}

// Repository persists scheduled emails, newsletters and the email history.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new scheduled send repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListDueEmails returns up to limit scheduled emails whose send time has passed,
// oldest first.
func (r *Repository) ListDueEmails(ctx context.Context, now time.Time, limit int) ([]ScheduledEmail, error) {
	query := `
		SELECT id, tenant_id, client_document_id, recipient, subject, html_body, attachment_keys, scheduled_at
		FROM scheduled_emails
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, StatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due emails: %w", err)
	}

	defer rows.Close()

	var emails []ScheduledEmail
	for rows.Next() {
		var e ScheduledEmail
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ClientDocumentID, &e.Recipient, &e.Subject,
			&e.HTMLBody, &e.AttachmentKeys, &e.ScheduledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled emails: %w", err)
	}
	return emails, nil
}

// ListDueNewsletters returns up to limit scheduled newsletters whose send time
// has passed, oldest first.
func (r *Repository) ListDueNewsletters(ctx context.Context, now time.Time, limit int) ([]Newsletter, error) {
	query := `
		SELECT id, tenant_id, subject, html_body, recipients, scheduled_at
		FROM newsletters
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, StatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due newsletters: %w", err)
	}

	defer rows.Close()

	var newsletters []Newsletter
	for rows.Next() {
		var n Newsletter
		if err := rows.Scan(&n.ID, &n.TenantID, &n.Subject, &n.HTMLBody, &n.Recipients, &n.ScheduledAt); err != nil {
			return nil, fmt.Errorf("failed to scan newsletter: %w", err)
		}
		newsletters = append(newsletters, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate newsletters: %w", err)
	}
	return newsletters, nil
}

// MarkEmailSent moves a scheduled email to sent.
func (r *Repository) MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `UPDATE scheduled_emails SET status = $2, sent_at = $3, last_error = NULL WHERE id = $1 AND status = $4`
	return r.transition(ctx, query, "email", id, StatusSent, sentAt, StatusScheduled)
}

// MarkEmailFailed moves a scheduled email to failed with reason.
func (r *Repository) MarkEmailFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE scheduled_emails SET status = $2, last_error = $3 WHERE id = $1 AND status = $4`
	return r.transition(ctx, query, "email", id, StatusFailed, reason, StatusScheduled)
}

// MarkNewsletterSent moves a newsletter to sent and stores how many recipients
// received it.
func (r *Repository) MarkNewsletterSent(ctx context.Context, id uuid.UUID, sentAt time.Time, sentCount int) error {
	query := `
		UPDATE newsletters SET status = $2, sent_at = $3, sent_count = $4, last_error = NULL
		WHERE id = $1 AND status = $5`
	return r.transition(ctx, query, "newsletter", id, StatusSent, sentAt, sentCount, StatusScheduled)
}

// MarkNewsletterFailed moves a newsletter to failed with reason.
func (r *Repository) MarkNewsletterFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE newsletters SET status = $2, last_error = $3 WHERE id = $1 AND status = $4`
	return r.transition(ctx, query, "newsletter", id, StatusFailed, reason, StatusScheduled)
}

// RecordEmailHistory appends a delivered email to the client's history.
func (r *Repository) RecordEmailHistory(ctx context.Context, entry EmailHistoryEntry) error {
	query := `
		INSERT INTO email_history (id, tenant_id, client_document_id, recipient, subject, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, uuid.New(), entry.TenantID, entry.ClientDocumentID,
		entry.Recipient, entry.Subject, entry.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert email history: %w", err)
	}
	return nil
}

func (r *Repository) transition(ctx context.Context, query, kind string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", kind, err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(kind + " not found or already processed")
	}
	return nil
}

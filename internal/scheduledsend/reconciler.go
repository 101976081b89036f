// Package scheduledsend delivers scheduled emails and newsletters once their
// send time has passed.
package scheduledsend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eclipse_backend/internal/adapters/storage"
	"eclipse_backend/internal/email"
	"eclipse_backend/internal/events"
	"eclipse_backend/internal/pipeline/domain"
	pipelineservice "eclipse_backend/internal/pipeline/service"
	"eclipse_backend/internal/scheduledsend/repository"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultInterval  = time.Minute
	defaultBatchSize = 50

	kindEmail      = "email"
	kindNewsletter = "newsletter"
)

var errNoRecipients = errors.New("newsletter has no recipients")

// Store is the persistence used by the reconciler.
type Store interface {
	ListDueEmails(ctx context.Context, now time.Time, limit int) ([]repository.ScheduledEmail, error)
	ListDueNewsletters(ctx context.Context, now time.Time, limit int) ([]repository.Newsletter, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkEmailFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkNewsletterSent(ctx context.Context, id uuid.UUID, sentAt time.Time, sentCount int) error
	MarkNewsletterFailed(ctx context.Context, id uuid.UUID, reason string) error
	RecordEmailHistory(ctx context.Context, entry repository.EmailHistoryEntry) error
}

// AttachmentFetcher downloads attachment objects.
type AttachmentFetcher interface {
	FetchObject(ctx context.Context, bucket, fileKey string) (storage.Object, error)
}

// ActionRecorder feeds delivered emails into the client pipeline.
type ActionRecorder interface {
	RecordAction(ctx context.Context, tenantID uuid.UUID, clientID string, action domain.Action) (pipelineservice.StatusChange, error)
}

// Result counts what one reconciliation pass did.
type Result struct {
	EmailsSent        int
	EmailsFailed      int
	NewslettersSent   int
	NewslettersFailed int
}

// Reconciler polls for due emails and newsletters and sends them. Each item
// moves to sent or failed on its own; a crash between send and status update
// re-sends the item on the next pass.
type Reconciler struct {
	store       Store
	sender      email.Sender
	attachments AttachmentFetcher // optional
	bucket      string
	recorder    ActionRecorder // optional
	eventBus    events.Bus     // optional
	log         *logger.Logger
	interval    time.Duration
	batchSize   int
	now         func() time.Time
}

// NewReconciler creates a reconciler polling at the configured interval.
func NewReconciler(store Store, sender email.Sender, cfg config.SchedulerConfig, log *logger.Logger) *Reconciler {
	interval := cfg.GetScheduledSendInterval()
	if interval <= 0 {
		interval = defaultInterval
	}
	batchSize := cfg.GetScheduledSendBatchSize()
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Reconciler{
		store:     store,
		sender:    sender,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// SetAttachmentFetcher enables attachments, read from bucket.
func (r *Reconciler) SetAttachmentFetcher(fetcher AttachmentFetcher, bucket string) {
	r.attachments = fetcher
	r.bucket = bucket
}

// SetActionRecorder injects the pipeline service.
func (r *Reconciler) SetActionRecorder(recorder ActionRecorder) {
	r.recorder = recorder
}

// SetEventBus injects the event bus.
func (r *Reconciler) SetEventBus(bus events.Bus) {
	r.eventBus = bus
}

// Run reconciles once immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	if r == nil || r.store == nil || r.sender == nil {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		res, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Warn("scheduled send pass failed", "error", err)
		}
		if res.EmailsSent+res.EmailsFailed+res.NewslettersSent+res.NewslettersFailed > 0 {
			r.log.Info("scheduled send pass completed",
				"emails_sent", res.EmailsSent,
				"emails_failed", res.EmailsFailed,
				"newsletters_sent", res.NewslettersSent,
				"newsletters_failed", res.NewslettersFailed,
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce processes every item due now, emails first. Items are handled
// sequentially; an item failure never stops the pass, and a failed listing of
// one kind does not skip the other.
func (r *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	now := r.now()

	var errs []error

	emails, err := r.store.ListDueEmails(ctx, now, r.batchSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("list due emails: %w", err))
	}
	for _, e := range emails {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if r.processEmail(ctx, e) {
			res.EmailsSent++
		} else {
			res.EmailsFailed++
		}
	}

	newsletters, err := r.store.ListDueNewsletters(ctx, now, r.batchSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("list due newsletters: %w", err))
	}
	for _, n := range newsletters {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if r.processNewsletter(ctx, n) {
			res.NewslettersSent++
		} else {
			res.NewslettersFailed++
		}
	}

	return res, errors.Join(errs...)
}

func (r *Reconciler) processEmail(ctx context.Context, e repository.ScheduledEmail) bool {
	attachments, err := r.loadAttachments(ctx, e.AttachmentKeys)
	if err != nil {
		r.failEmail(ctx, e, err)
		return false
	}

	msg := email.Message{
		To:          e.Recipient,
		Subject:     e.Subject,
		HTML:        e.HTMLBody,
		Attachments: attachments,
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		r.failEmail(ctx, e, err)
		return false
	}

	sentAt := r.now()
	if err := r.store.MarkEmailSent(ctx, e.ID, sentAt); err != nil {
		r.log.Error("failed to mark scheduled email sent", "email_id", e.ID, "error", err)
	}

	if err := r.store.RecordEmailHistory(ctx, repository.EmailHistoryEntry{
		TenantID:         e.TenantID,
		ClientDocumentID: e.ClientDocumentID,
		Recipient:        e.Recipient,
		Subject:          e.Subject,
		SentAt:           sentAt,
	}); err != nil {
		r.log.Error("failed to record email history", "email_id", e.ID, "error", err)
	}

	clientID := ""
	if e.ClientDocumentID != nil {
		clientID = *e.ClientDocumentID
	}
	if clientID != "" && r.recorder != nil {
		if _, err := r.recorder.RecordAction(ctx, e.TenantID, clientID, domain.ActionEmailSent); err != nil {
			r.log.Warn("failed to record email_sent action", "client_id", clientID, "tenant_id", e.TenantID, "error", err)
		}
	}

	if r.eventBus != nil {
		r.eventBus.Publish(ctx, events.ScheduledEmailSent{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  e.TenantID,
			EmailID:   e.ID,
			ClientID:  clientID,
			Recipient: e.Recipient,
		})
	}
	return true
}

func (r *Reconciler) loadAttachments(ctx context.Context, keys []string) ([]email.Attachment, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if r.attachments == nil {
		return nil, fmt.Errorf("attachment storage is not configured")
	}

	attachments := make([]email.Attachment, 0, len(keys))
	for _, key := range keys {
		obj, err := r.attachments.FetchObject(ctx, r.bucket, key)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", key, err)
		}
		attachments = append(attachments, email.Attachment{
			Content:  obj.Content,
			FileName: obj.FileName,
			MIMEType: obj.ContentType,
		})
	}
	return attachments, nil
}

func (r *Reconciler) failEmail(ctx context.Context, e repository.ScheduledEmail, cause error) {
	reason := cause.Error()
	if err := r.store.MarkEmailFailed(ctx, e.ID, reason); err != nil {
		r.log.Error("failed to mark scheduled email failed", "email_id", e.ID, "error", err)
	}
	r.publishFailure(ctx, e.TenantID, e.ID, kindEmail, reason)
}

func (r *Reconciler) processNewsletter(ctx context.Context, n repository.Newsletter) bool {
	recipients := uniqueRecipients(n.Recipients)
	if len(recipients) == 0 {
		r.failNewsletter(ctx, n, errNoRecipients)
		return false
	}

	sent := 0
	var lastErr error
	for _, to := range recipients {
		if err := r.sender.Send(ctx, email.Message{To: to, Subject: n.Subject, HTML: n.HTMLBody}); err != nil {
			lastErr = err
			r.log.Warn("newsletter recipient failed", "newsletter_id", n.ID, "recipient", to, "error", err)
			continue
		}
		sent++
	}

	if sent == 0 {
		r.failNewsletter(ctx, n, lastErr)
		return false
	}

	if err := r.store.MarkNewsletterSent(ctx, n.ID, r.now(), sent); err != nil {
		r.log.Error("failed to mark newsletter sent", "newsletter_id", n.ID, "error", err)
	}
	return true
}

func (r *Reconciler) failNewsletter(ctx context.Context, n repository.Newsletter, cause error) {
	reason := cause.Error()
	if err := r.store.MarkNewsletterFailed(ctx, n.ID, reason); err != nil {
		r.log.Error("failed to mark newsletter failed", "newsletter_id", n.ID, "error", err)
	}
	r.publishFailure(ctx, n.TenantID, n.ID, kindNewsletter, reason)
}

func (r *Reconciler) publishFailure(ctx context.Context, tenantID, itemID uuid.UUID, kind, reason string) {
	if r.eventBus == nil {
		return
	}
	r.eventBus.Publish(ctx, events.ScheduledSendFailed{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		ItemID:    itemID,
		Kind:      kind,
		Reason:    reason,
	})
}

// uniqueRecipients trims addresses and drops blanks and case-insensitive duplicates.
func uniqueRecipients(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

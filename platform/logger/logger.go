// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// TenantIDKey is the context key for the tenant (workspace) ID.
	TenantIDKey contextKey = "tenant_id"
)

// Logger wraps slog.Logger for structured logging.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout. Development gets human readable text at
// debug level, every other environment gets JSON at info level.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger enriched with request, user and tenant ids found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	attrs := make([]any, 0, 3)
	for _, key := range []contextKey{RequestIDKey, UserIDKey, TenantIDKey} {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			attrs = append(attrs, slog.String(string(key), value))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// WithTenant returns a logger tagged with a tenant id.
func (l *Logger) WithTenant(tenantID string) *Logger {
	return &Logger{Logger: l.With(slog.String("tenant_id", tenantID))}
}

// HTTPRequest logs an HTTP request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors.
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// PipelineStatusChanged logs an automatic or manual pipeline transition.
func (l *Logger) PipelineStatusChanged(clientID, from, to, source string) {
	l.Info("pipeline_status_changed",
		slog.String("client_id", clientID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("source", source),
	)
}

// ScheduledEmailSent logs a delivered scheduled email.
func (l *Logger) ScheduledEmailSent(emailID, clientID, recipient string) {
	l.Info("scheduled_email_sent",
		slog.String("email_id", emailID),
		slog.String("client_id", clientID),
		slog.String("recipient", recipient),
	)
}

// ScheduledSendFailed logs a scheduled email or newsletter that moved to failed.
func (l *Logger) ScheduledSendFailed(kind, itemID, reason string) {
	l.Warn("scheduled_send_failed",
		slog.String("kind", kind),
		slog.String("item_id", itemID),
		slog.String("reason", reason),
	)
}

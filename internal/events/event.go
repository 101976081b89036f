// Package events defines the events published by the clients, pipeline and
// scheduled send packages.
package events

import (
	"eclipse_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Clients Domain Events
// =============================================================================

// ClientCreated is published when a client contact record is created.
type ClientCreated struct {
	BaseEvent
	TenantID   uuid.UUID `json:"tenantId"`
	DocumentID string    `json:"documentId"`
	Name       string    `json:"name"`
}

func (e ClientCreated) EventName() string { return "clients.client.created" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// Pipeline status change sources.
const (
	StatusSourceInference = "inference"
	StatusSourceAction    = "action"
	StatusSourceManual    = "manual"
)

// ClientPipelineStatusChanged is published after a client's stored pipeline
// status was rewritten. PreviousStatus is empty when the client had none.
type ClientPipelineStatusChanged struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	ClientID       string    `json:"clientId"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	NewStatus      string    `json:"newStatus"`
	Source         string    `json:"source"`
}

func (e ClientPipelineStatusChanged) EventName() string { return "pipeline.client.status_changed" }

// =============================================================================
// Scheduled Send Domain Events
// =============================================================================

// ScheduledEmailSent is published once a scheduled email was delivered.
type ScheduledEmailSent struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	EmailID   uuid.UUID `json:"emailId"`
	ClientID  string    `json:"clientId,omitempty"`
	Recipient string    `json:"recipient"`
}

func (e ScheduledEmailSent) EventName() string { return "scheduledsend.email.sent" }

// ScheduledSendFailed is published when a scheduled email or newsletter
// transitioned to failed.
type ScheduledSendFailed struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	ItemID   uuid.UUID `json:"itemId"`
	Kind     string    `json:"kind"`
	Reason   string    `json:"reason"`
}

func (e ScheduledSendFailed) EventName() string { return "scheduledsend.item.failed" }

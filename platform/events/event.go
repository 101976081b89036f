// Package events is the in-process publish/subscribe bus connecting client
// creation, pipeline status writes and scheduled sends to their listeners.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName is the subscription key,
// e.g. "pipeline.client.status_changed".
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by every event to carry its timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to one event name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a closure subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events to the handlers subscribed to their name. Publish runs
// handlers in the background; PublishSync runs them inline and joins their errors.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

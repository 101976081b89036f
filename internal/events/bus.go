package events

import (
	platformevents "eclipse_backend/platform/events"
	"eclipse_backend/platform/logger"
)

// InMemoryBus is the bus both binaries run; handler errors go to the logger.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus returns an empty bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

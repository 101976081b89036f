package scheduledsend

import (
	"context"

	"eclipse_backend/internal/events"
	"eclipse_backend/platform/logger"
)

// RegisterHandlers subscribes the delivery log to scheduled send outcomes.
func RegisterHandlers(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(events.ScheduledEmailSent{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.ScheduledEmailSent)
		if !ok {
			return nil
		}
		log.WithTenant(e.TenantID.String()).ScheduledEmailSent(e.EmailID.String(), e.ClientID, e.Recipient)
		return nil
	}))

	bus.Subscribe(events.ScheduledSendFailed{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.ScheduledSendFailed)
		if !ok {
			return nil
		}
		log.WithTenant(e.TenantID.String()).ScheduledSendFailed(e.Kind, e.ItemID.String(), e.Reason)
		return nil
	}))
}

package payment

import (
	"context"

	"github.com/propshare/backend/internal/domain/shared"
)

// eventCarrier is the slice of an aggregate root the services need to
// drain its domain events after a successful write.
type eventCarrier interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishDomainEvents drains the aggregate's events onto the bus.
// Publish errors are logged by the event bus, not propagated: event
// delivery never unwinds a committed write.
func publishDomainEvents(ctx context.Context, publisher shared.EventPublisher, carrier eventCarrier) {
	if publisher == nil {
		return
	}
	events := carrier.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
	carrier.ClearDomainEvents()
}

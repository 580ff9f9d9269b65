package eventbus

import (
	"context"

	"github.com/amirasaad/corebank/pkg/domain/events"
)

// HandlerFunc processes one event. Delivery is at least once, so handlers
// must tolerate duplicates.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}

package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/eventbus"
	"golang.org/x/sync/singleflight"
)

// KeyExtractor extracts an idempotency key from an event. An empty key
// disables the check for that event.
type KeyExtractor func(events.Event) string

// EventKey keys an event by its type and id, which survive redelivery.
func EventKey(e events.Event) string {
	k, ok := e.(interface{ Key() string })
	if !ok {
		return ""
	}
	return e.Type() + ":" + k.Key()
}

// Tracker remembers the keys handled successfully in this process.
type Tracker struct {
	processed sync.Map
	inflight  singleflight.Group
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Seen reports whether key was handled.
func (t *Tracker) Seen(key string) bool {
	_, ok := t.processed.Load(key)
	return ok
}

// Forget removes key so the next delivery is handled again.
func (t *Tracker) Forget(key string) {
	t.processed.Delete(key)
}

// WithIdempotency runs handler at most once per key. Concurrent deliveries of
// the same key wait for the running one and share its result; a failed run
// leaves the key unmarked so redelivery retries it.
func WithIdempotency(
	handler eventbus.HandlerFunc,
	tracker *Tracker,
	keyOf KeyExtractor,
	name string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		key := keyOf(e)
		if key == "" {
			return handler(ctx, e)
		}
		if tracker.Seen(key) {
			logger.Debug("duplicate delivery skipped", "handler", name, "key", key)
			return nil
		}

		_, err, _ := tracker.inflight.Do(key, func() (any, error) {
			if tracker.Seen(key) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.processed.Store(key, struct{}{})
			return nil, nil
		})
		if err != nil {
			logger.Warn("handler failed", "handler", name, "key", key, "error", err)
		}
		return err
	}
}

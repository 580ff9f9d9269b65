package events

import (
	"time"

	"github.com/google/uuid"
)

// FlowEvent carries the fields shared by every event.
type FlowEvent struct {
	ID uuid.UUID `json:"id"`
	// CorrelationID is the transaction reference or account number the event is about.
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
}

type FlowEventOpt func(*FlowEvent)

// WithTimestamp overrides the event time.
func WithTimestamp(ts time.Time) FlowEventOpt {
	return func(e *FlowEvent) { e.Timestamp = ts }
}

// NewFlowEvent creates a FlowEvent with a fresh id.
func NewFlowEvent(correlationID string, opts ...FlowEventOpt) FlowEvent {
	e := FlowEvent{
		ID:            uuid.New(),
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Key is the idempotency key of the event for subscribers.
func (e FlowEvent) Key() string { return e.ID.String() }

// Correlation returns the reference the event is about.
func (e FlowEvent) Correlation() string { return e.CorrelationID }

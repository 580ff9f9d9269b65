// Package notification turns ledger events into customer notifications.
// Delivery itself (email, push, WebSocket) belongs to a Notifier.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/eventbus"
)

// Kind classifies a notification.
type Kind string

const (
	KindTransferSent     Kind = "TRANSFER_SENT"
	KindTransferReceived Kind = "TRANSFER_RECEIVED"
	KindTransferFailed   Kind = "TRANSFER_FAILED"
	KindTransferReversed Kind = "TRANSFER_REVERSED"
	KindAccountStatus    Kind = "ACCOUNT_STATUS"
)

// Notification is one message for the holder of an account.
type Notification struct {
	AccountNumber string
	Kind          Kind
	Reference     string
	Message       string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "account", n.AccountNumber, "kind", n.Kind, "reference", n.Reference, "message", n.Message)
	return nil
}

// Subscriber maps events to notifications.
type Subscriber struct {
	notifier Notifier
	tracker  *Tracker
	logger   *slog.Logger
}

// NewSubscriber creates a Subscriber delivering through notifier.
func NewSubscriber(notifier Notifier, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{notifier: notifier, tracker: NewTracker(), logger: logger.With("component", "notification")}
}

// Register subscribes to every event that produces a notification.
func (s *Subscriber) Register(bus eventbus.Bus) {
	for _, et := range []events.EventType{
		events.EventTypeTransferCompleted,
		events.EventTypeTransferFailed,
		events.EventTypeTransferReversed,
		events.EventTypeAccountStatusChanged,
	} {
		bus.Register(et, WithIdempotency(s.Handle, s.tracker, EventKey, "notification."+et.String(), s.logger))
	}
}

// Handle delivers the notifications of one event. It stops at the first
// delivery error so the event is redelivered.
func (s *Subscriber) Handle(ctx context.Context, e events.Event) error {
	for _, n := range notificationsFor(e) {
		if err := s.notifier.Notify(ctx, n); err != nil {
			return fmt.Errorf("notify %s of %s: %w", n.AccountNumber, n.Kind, err)
		}
	}
	return nil
}

func notificationsFor(e events.Event) []Notification {
	switch evt := e.(type) {
	case events.TransferCompleted:
		out := []Notification{{
			AccountNumber: evt.SourceAccount,
			Kind:          KindTransferSent,
			Reference:     evt.CorrelationID,
			Message:       fmt.Sprintf("You sent %s %s to %s", evt.Amount, evt.Currency, evt.DestinationAccount),
		}}
		if evt.DestinationBankCode == "" {
			out = append(out, Notification{
				AccountNumber: evt.DestinationAccount,
				Kind:          KindTransferReceived,
				Reference:     evt.CorrelationID,
				Message:       fmt.Sprintf("You received %s %s from %s", evt.Amount, evt.Currency, evt.SourceAccount),
			})
		}
		return out
	case events.TransferFailed:
		msg := fmt.Sprintf("Your transfer of %s to %s failed: %s", evt.Amount, evt.DestinationAccount, evt.FailureCode)
		if evt.CompensationReference != "" {
			msg += "; the amount was returned to your account"
		}
		return []Notification{{
			AccountNumber: evt.SourceAccount,
			Kind:          KindTransferFailed,
			Reference:     evt.CorrelationID,
			Message:       msg,
		}}
	case events.TransferReversed:
		msg := fmt.Sprintf("Transfer %s of %s was reversed", evt.OriginalTransactionID, evt.Amount)
		return []Notification{
			{AccountNumber: evt.SourceAccount, Kind: KindTransferReversed, Reference: evt.ReversalReference, Message: msg},
			{AccountNumber: evt.DestinationAccount, Kind: KindTransferReversed, Reference: evt.ReversalReference, Message: msg},
		}
	case events.AccountStatusChanged:
		return []Notification{{
			AccountNumber: evt.AccountNumber,
			Kind:          KindAccountStatus,
			Reference:     evt.AccountNumber,
			Message:       fmt.Sprintf("Your account is now %s", evt.Current),
		}}
	}
	return nil
}

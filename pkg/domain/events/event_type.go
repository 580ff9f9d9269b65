package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	// Transfer events
	EventTypeTransferCompleted EventType = "Transfer.Completed"
	EventTypeTransferFailed    EventType = "Transfer.Failed"
	EventTypeTransferReversed  EventType = "Transfer.Reversed"

	// Account events
	EventTypeAccountSynced        EventType = "Account.Synced"
	EventTypeAccountStatusChanged EventType = "Account.StatusChanged"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
}

// EventTypes maps every known event type to a constructor, used by the
// transport adapters to decode payloads.
var EventTypes = map[EventType]func() Event{
	EventTypeTransferCompleted:    func() Event { return &TransferCompleted{} },
	EventTypeTransferFailed:       func() Event { return &TransferFailed{} },
	EventTypeTransferReversed:     func() Event { return &TransferReversed{} },
	EventTypeAccountSynced:        func() Event { return &AccountSynced{} },
	EventTypeAccountStatusChanged: func() Event { return &AccountStatusChanged{} },
}

package eventbus

import (
	"fmt"
	"strings"

	"github.com/amirasaad/corebank/pkg/domain/events"
)

func streamNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "events", eventType)
}

// dlqStreamName returns the DLQ stream name for the given event type.
func dlqStreamName(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "dlq", eventType)
}

// parkedStreamName holds messages that exhausted their DLQ retries.
func parkedStreamName(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "parked", eventType)
}

func nameFor(prefix, kind string, eventType events.EventType) string {
	base := kind
	if prefix != "" {
		base = prefix + ":" + kind
	}
	parts := strings.Split(eventType.String(), ".")
	if len(parts) == 2 {
		return fmt.Sprintf("%s:%s:%s", base, strings.ToLower(parts[0]), strings.ToLower(parts[1]))
	}
	return fmt.Sprintf("%s:%s", base, strings.ToLower(eventType.String()))
}

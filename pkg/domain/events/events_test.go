package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventTypesMatchConstructors(t *testing.T) {
	for et, ctor := range EventTypes {
		assert.Equal(t, et.String(), ctor().Type(), "constructor for %s builds the wrong event", et)
	}
}

func TestNewFlowEvent(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewFlowEvent("tx-1", WithTimestamp(ts))
	b := NewFlowEvent("tx-1")

	assert.Equal(t, "tx-1", a.CorrelationID)
	assert.Equal(t, ts, a.Timestamp)
	assert.NotEqual(t, a.Key(), b.Key())
}

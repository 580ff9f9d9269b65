package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/eventbus"
	"github.com/amirasaad/corebank/pkg/testutils"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripKeepsValueType(t *testing.T) {
	evt := completedEvent("ref-1", "1000000001")
	raw, err := encodeEnvelope(evt)
	require.NoError(t, err)

	et, decoded, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, events.EventTypeTransferCompleted, et)

	got, ok := decoded.(events.TransferCompleted)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, "ref-1", got.CorrelationID)
	assert.True(t, evt.Amount.Equal(got.Amount))
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, _, err := decodeEnvelope([]byte("not json"))
	require.Error(t, err)

	_, _, err = decodeEnvelope([]byte(`{"type":"","payload":{}}`))
	require.Error(t, err)

	et, _, err := decodeEnvelope([]byte(`{"type":"Loan.Approved","payload":{}}`))
	require.Error(t, err)
	assert.Equal(t, events.EventType("Loan.Approved"), et)
}

func TestExecuteHandlers(t *testing.T) {
	logger := testutils.DiscardLogger()
	evt := completedEvent("ref-2", "1000000001")
	ok := func(context.Context, events.Event) error { return nil }
	fail := func(context.Context, events.Event) error { return errors.New("boom") }
	panics := func(context.Context, events.Event) error { panic("handler bug") }

	assert.True(t, executeHandlers(context.Background(), logger, events.EventTypeTransferCompleted, evt,
		[]eventbus.HandlerFunc{ok, ok}, "1"))
	assert.False(t, executeHandlers(context.Background(), logger, events.EventTypeTransferCompleted, evt,
		[]eventbus.HandlerFunc{ok, fail}, "2"))
	assert.False(t, executeHandlers(context.Background(), logger, events.EventTypeTransferCompleted, evt,
		[]eventbus.HandlerFunc{panics}, "3"))
}

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "corebank:events:transfer:completed", streamNameFor("corebank", events.EventTypeTransferCompleted))
	assert.Equal(t, "corebank:dlq:account:statuschanged", dlqStreamName("corebank", events.EventTypeAccountStatusChanged))
	assert.Equal(t, "parked:transfer:failed", parkedStreamName("", events.EventTypeTransferFailed))
	assert.Equal(t, "corebank.events.transfer.reversed", topicNameFor("corebank.events", events.EventTypeTransferReversed))
	assert.Equal(t, "corebank.events.dlq.transfer.reversed", dlqTopicNameFor("corebank.events", events.EventTypeTransferReversed))
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, parseBrokers(""))
}

func TestKafkaSASLMechanism(t *testing.T) {
	m, err := buildKafkaSASLMechanism(&KafkaEventBusConfig{})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = buildKafkaSASLMechanism(&KafkaEventBusConfig{SASLUsername: "svc"})
	require.Error(t, err)

	m, err = buildKafkaSASLMechanism(&KafkaEventBusConfig{SASLUsername: "svc", SASLPassword: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", m.Name())
}

func TestKafkaMessageKeyAndDeliveries(t *testing.T) {
	assert.Equal(t, []byte("ref-1"), messageKey(events.TransferCompleted{FlowEvent: events.NewFlowEvent("ref-1")}))
	assert.Equal(t, []byte("Transfer.Failed"), messageKey(events.TransferFailed{}))

	assert.Equal(t, 0, deliveries(kafka.Message{}))
	assert.Equal(t, 3, deliveries(kafka.Message{Headers: []kafka.Header{
		{Key: "other", Value: []byte("9")},
		{Key: deliveriesHeader, Value: []byte("3")},
	}}))
}

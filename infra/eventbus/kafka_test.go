//go:build kafka
// +build kafka

package eventbus

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/testutils"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	testcontainerskafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// setupKafkaBus starts a Kafka container and returns a bus on it.
func setupKafkaBus(tb testing.TB) *KafkaEventBus {
	tb.Helper()
	if !dockerIsReachable() {
		tb.Skip("docker is not reachable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	container, err := testcontainerskafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(tb, err)

	cfg := DefaultKafkaEventBusConfig()
	cfg.DLQRetryInterval = time.Hour
	bus, err := NewWithKafka(strings.Join(brokers, ","), testutils.DiscardLogger(), cfg)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestKafkaBusHandlerReceivesEvent(t *testing.T) {
	bus := setupKafkaBus(t)

	received := make(chan string, 1)
	bus.Register(events.EventTypeTransferCompleted, func(ctx context.Context, e events.Event) error {
		received <- e.(events.TransferCompleted).CorrelationID
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), completedEvent("ref-k1", "1000000001")))

	select {
	case ref := <-received:
		require.Equal(t, "ref-k1", ref)
	case <-time.After(15 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}

func TestKafkaBusDLQ(t *testing.T) {
	bus := setupKafkaBus(t)

	bus.Register(events.EventTypeTransferFailed, func(ctx context.Context, e events.Event) error {
		return fmt.Errorf("simulated failure")
	})
	require.NoError(t, bus.Emit(context.Background(), events.TransferFailed{FlowEvent: events.NewFlowEvent("ref-k2")}))

	dlqReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     bus.brokers,
		Topic:       dlqTopicNameFor(bus.config.TopicPrefix, events.EventTypeTransferFailed),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	defer func() { _ = dlqReader.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	msg, err := dlqReader.FetchMessage(ctx)
	require.NoError(t, err)
	et, _, err := decodeEnvelope(msg.Value)
	require.NoError(t, err)
	require.Equal(t, events.EventTypeTransferFailed, et)
	require.Equal(t, 1, deliveries(msg))
}

func TestKafkaBusDLQRetry(t *testing.T) {
	bus := setupKafkaBus(t)

	var fail atomic.Bool
	fail.Store(true)
	received := make(chan string, 1)
	bus.Register(events.EventTypeTransferCompleted, func(ctx context.Context, e events.Event) error {
		if fail.Load() {
			return fmt.Errorf("temporary failure")
		}
		received <- e.(events.TransferCompleted).CorrelationID
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), completedEvent("retry-me", "1000000001")))

	time.Sleep(3 * time.Second)
	fail.Store(false)
	bus.replayDLQ(context.Background(), events.EventTypeTransferCompleted)

	select {
	case ref := <-received:
		require.Equal(t, "retry-me", ref)
	case <-time.After(20 * time.Second):
		t.Fatal("DLQ retry did not republish message in time")
	}
}

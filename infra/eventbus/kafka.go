package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/eventbus"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID          string
	TopicPrefix      string
	DLQRetryInterval time.Duration
	DLQBatchSize     int
	// MaxDeliveries bounds how often a rejected message is replayed from
	// the DLQ before it is parked.
	MaxDeliveries int
	SASLUsername  string
	SASLPassword  string
}

// deliveriesHeader counts how many times a DLQ message was handed back to
// the handlers.
const deliveriesHeader = "x-corebank-deliveries"

// DefaultKafkaEventBusConfig returns default configuration for KafkaEventBus.
func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		GroupID:          "corebank",
		TopicPrefix:      "corebank.events",
		DLQRetryInterval: 5 * time.Minute,
		DLQBatchSize:     10,
		MaxDeliveries:    5,
	}
}

// KafkaEventBus implements a Kafka-backed event bus: one topic per event
// type and a DLQ topic per event type for messages a handler rejected.
type KafkaEventBus struct {
	brokers []string
	writer  *kafka.Writer
	dialer  *kafka.Dialer
	ctx     context.Context

	handlers    map[events.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex

	readers    map[events.EventType]*kafka.Reader
	readersMtx sync.Mutex
	topicsMtx  sync.Mutex
	topics     map[string]struct{}

	logger *slog.Logger
	config *KafkaEventBusConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a new Kafka-backed event bus.
// brokers: Comma-separated brokers list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(
	brokers string,
	logger *slog.Logger,
	config *KafkaEventBusConfig,
) (*KafkaEventBus, error) {
	bus, err := newKafkaEventBus(brokers, logger, config)
	if err != nil {
		return nil, err
	}
	if err := bus.ping(bus.ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	bus.startDLQRetryWorker(bus.ctx)
	bus.logger.Info("kafka event bus initialized",
		"group_id", bus.config.GroupID,
		"brokers", bus.brokers,
		"dlq_retry_interval", bus.config.DLQRetryInterval,
		"sasl_enabled", bus.dialer.SASLMechanism != nil,
	)
	return bus, nil
}

func newKafkaEventBus(brokers string, logger *slog.Logger, config *KafkaEventBusConfig) (*KafkaEventBus, error) {
	parsedBrokers := parseBrokers(brokers)
	if len(parsedBrokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaEventBusConfig()
	}
	if config.GroupID == "" {
		config.GroupID = "corebank"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = "corebank.events"
	}
	if config.DLQBatchSize <= 0 {
		config.DLQBatchSize = 10
	}
	if config.DLQRetryInterval <= 0 {
		config.DLQRetryInterval = 5 * time.Minute
	}
	if config.MaxDeliveries <= 0 {
		config.MaxDeliveries = 5
	}
	if logger == nil {
		logger = slog.Default()
	}

	mechanism, err := buildKafkaSASLMechanism(config)
	if err != nil {
		return nil, err
	}
	dialer := &kafka.Dialer{Timeout: 5 * time.Second, SASLMechanism: mechanism}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsedBrokers...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	if mechanism != nil {
		writer.Transport = &kafka.Transport{SASL: mechanism}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaEventBus{
		brokers:  parsedBrokers,
		writer:   writer,
		dialer:   dialer,
		ctx:      ctx,
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		readers:  make(map[events.EventType]*kafka.Reader),
		topics:   make(map[string]struct{}),
		logger:   logger.With("bus", "kafka"),
		config:   config,
		cancel:   cancel,
	}, nil
}

// Close stops background goroutines and closes network resources.
func (b *KafkaEventBus) Close() error {
	if b == nil {
		return nil
	}
	if b.cancel != nil {
		b.cancel()
	}

	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()

	b.wg.Wait()

	if b.writer != nil {
		return b.writer.Close()
	}
	return nil
}

// Register registers an event handler for a specific event type.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.ensureConsumer(eventType)
}

// Emit publishes an event to Kafka. The message key is the event's
// correlation id when it has one, so events of one transfer stay ordered.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	if b == nil || b.writer == nil {
		return fmt.Errorf("kafka event bus: writer not initialized")
	}
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}

	topic := topicNameFor(b.config.TopicPrefix, events.EventType(event.Type()))
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   messageKey(event),
		Value: envBytes,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func messageKey(event events.Event) []byte {
	if k, ok := event.(interface{ Correlation() string }); ok && k.Correlation() != "" {
		return []byte(k.Correlation())
	}
	return []byte(event.Type())
}

func (b *KafkaEventBus) ping(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()
	return nil
}

func (b *KafkaEventBus) newReader(topic, groupID string, maxWait time.Duration) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     groupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     maxWait,
		Dialer:      b.dialer,
	})
}

func (b *KafkaEventBus) ensureConsumer(eventType events.EventType) {
	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}

	topic := topicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("cannot subscribe", "event_type", eventType, "topic", topic, "error", err)
		return
	}
	reader := b.newReader(topic, b.config.GroupID, time.Second)
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(b.ctx, eventType, reader)
	}()
}

// consume runs until the bus is closed. Fetch and DLQ failures back off
// exponentially; the offset is only committed once the message is handled
// or safely parked in the DLQ.
func (b *KafkaEventBus) consume(ctx context.Context, eventType events.EventType, reader *kafka.Reader) {
	pause := backoff.NewExponentialBackOff()
	pause.InitialInterval = 200 * time.Millisecond
	pause.MaxInterval = 10 * time.Second
	pause.MaxElapsedTime = 0

	wait := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pause.NextBackOff()):
			return true
		}
	}

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("fetch failed", "event_type", eventType, "error", err)
			if !wait() {
				return
			}
			continue
		}
		if err := b.handle(ctx, eventType, msg); err != nil {
			b.logger.Error("message not settled, refetching", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			if !wait() {
				return
			}
			continue
		}
		pause.Reset()
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			b.logger.Error("commit failed", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// handle returns nil when the offset may be committed: the message was
// handled, was undecodable, or went to the DLQ.
func (b *KafkaEventBus) handle(ctx context.Context, topicType events.EventType, msg kafka.Message) error {
	evtType, evt, err := decodeEnvelope(msg.Value)
	if err != nil {
		b.logger.Error("dropping undecodable message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if evtType != topicType {
		b.logger.Warn("event type does not match topic", "topic", msg.Topic, "event_type", evtType)
	}
	handlers := b.getHandlers(evtType)
	if len(handlers) == 0 {
		return nil
	}
	if executeHandlers(ctx, b.logger, evtType, evt, handlers, strconv.FormatInt(msg.Offset, 10)) {
		return nil
	}
	return b.publishToDLQ(ctx, evtType, msg.Value, deliveries(msg)+1)
}

func deliveries(msg kafka.Message) int {
	for _, h := range msg.Headers {
		if h.Key == deliveriesHeader {
			n, _ := strconv.Atoi(string(h.Value))
			return n
		}
	}
	return 0
}

func (b *KafkaEventBus) publishToDLQ(ctx context.Context, eventType events.EventType, raw []byte, delivered int) error {
	topic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(eventType.String()),
		Value:   raw,
		Headers: []kafka.Header{{Key: deliveriesHeader, Value: []byte(strconv.Itoa(delivered))}},
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("handler failed, message moved to DLQ", "event_type", eventType, "deliveries", delivered)
	return nil
}

func buildKafkaSASLMechanism(config *KafkaEventBusConfig) (sasl.Mechanism, error) {
	username := strings.TrimSpace(config.SASLUsername)
	password := strings.TrimSpace(config.SASLPassword)
	if username == "" && password == "" {
		return nil, nil
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: username, Password: password}, nil
}

func (b *KafkaEventBus) ensureTopic(ctx context.Context, topic string) error {
	b.topicsMtx.Lock()
	_, exists := b.topics[topic]
	b.topicsMtx.Unlock()
	if exists {
		return nil
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka event bus: create topic failed: %w", err)
	}

	b.topicsMtx.Lock()
	b.topics[topic] = struct{}{}
	b.topicsMtx.Unlock()
	return nil
}

func (b *KafkaEventBus) getHandlers(eventType events.EventType) []eventbus.HandlerFunc {
	b.handlersMtx.RLock()
	defer b.handlersMtx.RUnlock()
	return append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
}

func (b *KafkaEventBus) startDLQRetryWorker(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.config.DLQRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.readersMtx.Lock()
				subscribed := make([]events.EventType, 0, len(b.readers))
				for et := range b.readers {
					subscribed = append(subscribed, et)
				}
				b.readersMtx.Unlock()
				for _, et := range subscribed {
					b.replayDLQ(ctx, et)
				}
			}
		}
	}()
}

// replayDLQ moves up to DLQBatchSize messages back onto the main topic.
// Messages that already used up MaxDeliveries stay parked.
func (b *KafkaEventBus) replayDLQ(ctx context.Context, eventType events.EventType) {
	dlq := b.newReader(dlqTopicNameFor(b.config.TopicPrefix, eventType), b.config.GroupID+"-dlq-retry", 250*time.Millisecond)
	defer func() { _ = dlq.Close() }()

	topic := topicNameFor(b.config.TopicPrefix, eventType)
	for range b.config.DLQBatchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		msg, err := dlq.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			return
		}
		n := deliveries(msg)
		if n > b.config.MaxDeliveries {
			b.logger.Error("message parked after repeated handler failures", "event_type", eventType, "deliveries", n)
			_ = dlq.CommitMessages(ctx, msg)
			continue
		}
		if err := b.writer.WriteMessages(ctx, kafka.Message{
			Topic:   topic,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: msg.Headers,
			Time:    time.Now(),
		}); err != nil {
			b.logger.Error("dlq replay failed", "event_type", eventType, "error", err)
			return
		}
		_ = dlq.CommitMessages(ctx, msg)
	}
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", strings.TrimSpace(prefix), strings.ToLower(eventType.String()))
}

func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.dlq.%s", strings.TrimSpace(prefix), strings.ToLower(eventType.String()))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)

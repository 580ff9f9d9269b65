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
	"github.com/redis/go-redis/v9"
)

// RedisEventBusConfig holds configuration for the Redis Streams event bus.
type RedisEventBusConfig struct {
	// Prefix namespaces every stream, e.g. "corebank" gives "corebank:events:transfer:completed".
	Prefix           string
	Group            string
	DLQRetryInterval time.Duration
	DLQBatchSize     int64
	// DLQMaxRetries is how many times a failed message is redelivered before
	// it is parked.
	DLQMaxRetries int
}

// DefaultRedisEventBusConfig returns default configuration for RedisEventBus.
func DefaultRedisEventBusConfig() *RedisEventBusConfig {
	return &RedisEventBusConfig{
		Prefix:           "corebank",
		Group:            "corebank",
		DLQRetryInterval: 5 * time.Minute,
		DLQBatchSize:     10,
		DLQMaxRetries:    3,
	}
}

// RedisEventBus implements the event bus on Redis Streams: one stream per
// event type, one consumer group per service, failed messages go to a DLQ
// stream and are redelivered by a background worker.
type RedisEventBus struct {
	client      *redis.Client
	ownsClient  bool
	config      *RedisEventBusConfig
	logger      *slog.Logger
	handlers    map[events.EventType][]eventbus.HandlerFunc
	consumers   map[events.EventType]struct{}
	handlersMtx sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis connects to url (e.g. "redis://localhost:6379/0") and creates
// a Redis-backed event bus.
func NewWithRedis(url string, logger *slog.Logger, config *RedisEventBusConfig) (*RedisEventBus, error) {
	if url == "" {
		return nil, fmt.Errorf("redis event bus: url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	bus := NewWithRedisClient(client, logger, config)
	bus.ownsClient = true
	return bus, nil
}

// NewWithRedisClient creates a bus on an existing client.
func NewWithRedisClient(client *redis.Client, logger *slog.Logger, config *RedisEventBusConfig) *RedisEventBus {
	if config == nil {
		config = DefaultRedisEventBusConfig()
	}
	if config.Group == "" {
		config.Group = "corebank"
	}
	if config.DLQBatchSize <= 0 {
		config.DLQBatchSize = 10
	}
	if config.DLQRetryInterval <= 0 {
		config.DLQRetryInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client:    client,
		config:    config,
		logger:    logger.With("bus", "redis"),
		handlers:  make(map[events.EventType][]eventbus.HandlerFunc),
		consumers: make(map[events.EventType]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	b.startDLQRetryWorker(ctx)
	return b
}

// Close stops the consumers and, when the bus created it, the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

// Emit publishes an event to the stream of its type.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	stream := streamNameFor(b.config.Prefix, events.EventType(event.Type()))
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"event": string(raw), "retries": 0},
	}).Err(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type(), "stream", stream)
	return nil
}

// Register adds a handler and starts the consumer of the event type once.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	_, running := b.consumers[eventType]
	b.consumers[eventType] = struct{}{}
	b.handlersMtx.Unlock()

	if running {
		return
	}
	stream := streamNameFor(b.config.Prefix, eventType)
	if err := b.client.XGroupCreateMkStream(b.ctx, stream, b.config.Group, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "error", err, "stream", stream)
	}
	consumer := fmt.Sprintf("consumer-%s-%d", eventType, time.Now().UnixNano())
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(b.ctx, eventType, stream, consumer)
	}()
	b.logger.Info("handler registered", "event_type", eventType, "stream", stream, "consumer", consumer)
}

func (b *RedisEventBus) consumeLoop(ctx context.Context, eventType events.EventType, stream, consumer string) {
	for {
		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.config.Group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.processMessage(ctx, eventType, msg)
				if err := b.client.XAck(ctx, stream, b.config.Group, msg.ID).Err(); err != nil {
					b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
				}
			}
		}
	}
}

func (b *RedisEventBus) processMessage(ctx context.Context, eventType events.EventType, msg redis.XMessage) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.logger.Error("message without event payload", "msg_id", msg.ID)
		return
	}
	_, evt, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		return
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
	b.handlersMtx.RUnlock()

	if executeHandlers(ctx, b.logger, eventType, evt, handlers, msg.ID) {
		return
	}
	b.pushToDLQ(ctx, eventType, raw, retriesOf(msg))
}

// pushToDLQ stores a failed message for redelivery.
func (b *RedisEventBus) pushToDLQ(ctx context.Context, eventType events.EventType, raw string, retries int) {
	stream := dlqStreamName(b.config.Prefix, eventType)
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"event": raw, "retries": retries},
	}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", stream)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", stream, "retries", retries)
}

func (b *RedisEventBus) startDLQRetryWorker(ctx context.Context) {
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
				b.processAllDLQs(ctx)
			}
		}
	}()
}

// processAllDLQs moves DLQ messages of every registered event type back to
// their stream, or to the parked stream once DLQMaxRetries is reached.
func (b *RedisEventBus) processAllDLQs(ctx context.Context) {
	b.handlersMtx.RLock()
	types := make([]events.EventType, 0, len(b.consumers))
	for et := range b.consumers {
		types = append(types, et)
	}
	b.handlersMtx.RUnlock()

	for _, et := range types {
		if ctx.Err() != nil {
			return
		}
		b.retryDLQ(ctx, et)
	}
}

func (b *RedisEventBus) retryDLQ(ctx context.Context, eventType events.EventType) {
	dlq := dlqStreamName(b.config.Prefix, eventType)
	msgs, err := b.client.XRangeN(ctx, dlq, "-", "+", b.config.DLQBatchSize).Result()
	if err != nil {
		b.logger.Error("failed to read DLQ", "error", err, "stream", dlq)
		return
	}
	for _, msg := range msgs {
		raw, _ := msg.Values["event"].(string)
		retries := retriesOf(msg) + 1
		target := streamNameFor(b.config.Prefix, eventType)
		if b.config.DLQMaxRetries > 0 && retries > b.config.DLQMaxRetries {
			target = parkedStreamName(b.config.Prefix, eventType)
			b.logger.Error("event exhausted DLQ retries, parking it", "event_type", eventType, "retries", retries-1)
		}
		if err := b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: target,
			Values: map[string]any{"event": raw, "retries": retries},
		}).Err(); err != nil {
			b.logger.Error("failed to republish DLQ message", "error", err, "stream", target)
			return
		}
		if err := b.client.XDel(ctx, dlq, msg.ID).Err(); err != nil {
			b.logger.Error("failed to delete DLQ message", "error", err, "msg_id", msg.ID)
		}
	}
}

func retriesOf(msg redis.XMessage) int {
	switch v := msg.Values["retries"].(type) {
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

var _ eventbus.Bus = (*RedisEventBus)(nil)

package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	"github.com/amirasaad/corebank/pkg/domain/events"
)

// RunSmokeTest publishes an account event through the Kafka bus and waits
// for it to come back on the consumer side.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	cfg := infraeventbus.DefaultKafkaEventBusConfig()
	if groupID := strings.TrimSpace(os.Getenv("GROUP_ID")); groupID != "" {
		cfg.GroupID = groupID
	}
	cfg.TopicPrefix = "corebank.smoketest"

	bus, err := infraeventbus.NewWithKafka(brokers, logger, cfg)
	if err != nil {
		logger.Error("kafka bus unavailable", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	sent := events.AccountSynced{
		FlowEvent:     events.NewFlowEvent("smoketest"),
		AccountNumber: "0000000000",
		CustomerRef:   "SMOKE",
		Currency:      "VND",
		AccountType:   "CHECKING",
	}
	got := make(chan events.Event, 1)
	bus.Register(events.EventTypeAccountSynced, func(_ context.Context, e events.Event) error {
		select {
		case got <- e:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bus.Emit(ctx, sent); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "type", sent.Type(), "id", sent.Key())

	select {
	case e := <-got:
		logger.Info("consumed", "type", e.Type())
	case <-ctx.Done():
		logger.Error("no message consumed", "error", ctx.Err())
		return ctx.Err()
	}

	logger.Info("kafka smoke test passed")
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}

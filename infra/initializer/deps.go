package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/config"
	infracache "github.com/amirasaad/corebank/infra/cache"
	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	"github.com/amirasaad/corebank/infra/provider/directory"
	"github.com/amirasaad/corebank/infra/provider/partnerbank"
	"github.com/amirasaad/corebank/pkg/cache"
	"github.com/amirasaad/corebank/pkg/eventbus"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/redis/go-redis/v9"
)

// initEventBus selects the bus named by EVENT_BUS_DRIVER. An empty driver
// selects the asynchronous in-memory bus. When the configured broker cannot
// be reached the process falls back to the in-memory bus rather than refusing
// to start.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := ""
	if cfg.EventBus != nil {
		driver = cfg.EventBus.Driver
	}

	switch driver {
	case "", "memory":
		return infraeventbus.NewWithMemoryAsync(logger), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, fmt.Errorf("event bus driver redis requires REDIS_URL")
		}
		bus, err := infraeventbus.NewWithRedis(cfg.Redis.URL, logger, &infraeventbus.RedisEventBusConfig{
			Prefix:        cfg.EventBus.Stream,
			Group:         cfg.EventBus.Group,
			DLQMaxRetries: cfg.EventBus.DLQRetries,
		})
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to in-memory bus", "error", err)
			return infraeventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	case "kafka":
		if cfg.Kafka == nil || cfg.Kafka.Brokers == "" {
			return nil, fmt.Errorf("event bus driver kafka requires KAFKA_BROKERS")
		}
		bus, err := infraeventbus.NewWithKafka(cfg.Kafka.Brokers, logger, &infraeventbus.KafkaEventBusConfig{
			GroupID:     cfg.Kafka.GroupID,
			TopicPrefix: cfg.Kafka.Topic,
		})
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to in-memory bus", "error", err)
			return infraeventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

// initVerificationCache uses Redis when it answers a ping and process memory
// otherwise.
func initVerificationCache(cfg *config.App, logger *slog.Logger) (cache.VerificationCache, func() error) {
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err == nil {
			opt.PoolSize = cfg.Redis.PoolSize
			opt.DialTimeout = cfg.Redis.DialTimeout
			opt.ReadTimeout = cfg.Redis.ReadTimeout
			opt.WriteTimeout = cfg.Redis.WriteTimeout
			client := redis.NewClient(opt)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err = client.Ping(ctx).Err()
			cancel()
			if err == nil {
				logger.Info("Using Redis verification cache", "prefix", cfg.Redis.KeyPrefix)
				return infracache.NewRedisCache(client, cfg.Redis.KeyPrefix, logger), client.Close
			}
			_ = client.Close()
		}
		logger.Warn("Redis unavailable, using in-memory verification cache", "error", err)
	}
	mem := infracache.NewMemoryCache(0)
	return mem, func() error { mem.Close(); return nil }
}

// initPartnerBank returns the HTTP gateway, or the in-memory stub when no URL
// is configured. Verifications are cached either way.
func initPartnerBank(cfg *config.Partner, c cache.VerificationCache, logger *slog.Logger) provider.PartnerBank {
	var next provider.PartnerBank
	ttl := 10 * time.Minute
	if cfg != nil && cfg.Url != "" {
		next = partnerbank.New(cfg, logger)
	} else {
		logger.Warn("PARTNER_URL is not set, using the partner bank stub")
		next = partnerbank.NewStub()
	}
	if cfg != nil && cfg.VerifyTTL > 0 {
		ttl = cfg.VerifyTTL
	}
	return partnerbank.NewCached(next, c, ttl, logger)
}

// initDirectory returns the HTTP directory, or a static directory accepting
// every customer when no URL is configured.
func initDirectory(cfg *config.Directory, logger *slog.Logger) provider.CustomerDirectory {
	if cfg != nil && cfg.Url != "" {
		return directory.New(cfg, logger)
	}
	logger.Warn("DIRECTORY_URL is not set, every customer is treated as active")
	static := directory.NewStatic()
	static.AcceptAll = true
	return static
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/cache"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements cache.VerificationCache using Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCache creates a RedisCache on an existing client.
func NewRedisCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, logger: logger.With("component", "redis_cache")}
}

// NewRedisCacheWithOptions creates a RedisCache from redis.Options.
func NewRedisCacheWithOptions(opt *redis.Options, prefix string, logger *slog.Logger) *RedisCache {
	return NewRedisCache(redis.NewClient(opt), prefix, logger)
}

func (r *RedisCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisCache) Get(ctx context.Context, key string) (*provider.AccountVerification, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("redis cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		r.logger.Error("redis cache get error", "key", key, "error", err)
		return nil, err
	}
	var v provider.AccountVerification
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		r.logger.Error("redis cache unmarshal error", "key", key, "error", err)
		return nil, err
	}
	r.logger.Debug("redis cache hit", "key", key)
	return &v, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, v *provider.AccountVerification, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("redis cache marshal error", "key", key, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Error("redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("redis cache set", "key", key, "ttl", ttl)
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("redis cache delete error", "key", key, "error", err)
		return err
	}
	return nil
}

var _ cache.VerificationCache = (*RedisCache)(nil)

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// RedisCache is a Redis implementation of the CacheRepository port. Expiry is
// delegated to Redis itself via per-key TTLs, so Cleanup is a no-op.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
	ttl       time.Duration
	clock     func() time.Time
}

// redisEnvelope is the stored value: payload plus write timestamp, so entries
// keep their cached_at even though Redis owns expiry.
type redisEnvelope struct {
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// NewRedisCache connects to Redis and returns the cache.
func NewRedisCache(ctx context.Context, addr, password string, db int, keyPrefix string, logger *zap.Logger, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr))

	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
		ttl:       ttl,
		clock:     time.Now,
	}, nil
}

func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a live cache entry.
func (c *RedisCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		c.logger.Error("Failed to query cache", zap.Error(err), zap.String("key", key))
		return nil, ErrNotFound
	}

	var env redisEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		c.logger.Error("Failed to decode cache entry", zap.Error(err), zap.String("key", key))
		return nil, ErrNotFound
	}

	return &core.CacheEntry{
		Key:      key,
		Payload:  env.Payload,
		CachedAt: env.CachedAt,
	}, nil
}

// Set upserts a payload under the key; Redis expires it after the TTL.
func (c *RedisCache) Set(ctx context.Context, key string, payload json.RawMessage) error {
	data, err := json.Marshal(redisEnvelope{
		Payload:  payload,
		CachedAt: c.clock().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

// Cleanup is a no-op; Redis evicts expired keys itself.
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the Redis connection.
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
	}
}

// Package cache wraps the Redis client the engine shares for ad hoc
// key/value storage and the Tick Driver's cross-replica locks.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campaignflow/engine/internal/config"
)

// RedisCache is the engine's Redis handle: general key/value access plus
// the SETNX-based distributed lock the Tick Driver uses to keep at most one
// replica running a given periodic task.
type RedisCache struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string // lock key -> the token this process acquired it with
}

// NewRedisCache dials Redis from the process's Redis configuration and
// verifies the connection before returning.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client, tokens: make(map[string]string)}, nil
}

// Client exposes the underlying go-redis client for callers that need the
// full API surface.
func (c *RedisCache) Client() *redis.Client { return c.client }

// Close closes the connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

// Health pings Redis, for the process's /health endpoint.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value under key with an optional TTL (0 means no expiry).
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get returns the string stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Delete removes one or more keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Exists reports how many of the given keys are present.
func (c *RedisCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.client.Exists(ctx, keys...).Result()
}

// Expire sets a TTL on an existing key.
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// Increment atomically increments key and returns its new value.
func (c *RedisCache) Increment(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// Decrement atomically decrements key and returns its new value.
func (c *RedisCache) Decrement(ctx context.Context, key string) (int64, error) {
	return c.client.Decr(ctx, key).Result()
}

// TryLock attempts to acquire a named, TTL-bounded lock via SETNX, tagging
// it with a token unique to this acquisition. Returns true if acquired,
// false if another holder already has it. This is how the Tick Driver
// guarantees a single in-flight run of a periodic task across replicas.
func (c *RedisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("try lock %s: %w", key, err)
	}
	if ok {
		c.mu.Lock()
		c.tokens[key] = token
		c.mu.Unlock()
	}
	return ok, nil
}

// Unlock releases a lock acquired with TryLock. It WATCHes the key and only
// deletes it inside a transaction that still sees this process's token, so a
// lock whose TTL expired and was re-acquired by another replica in between
// is never torn down from under it.
func (c *RedisCache) Unlock(ctx context.Context, key string) error {
	c.mu.Lock()
	token, held := c.tokens[key]
	delete(c.tokens, key)
	c.mu.Unlock()
	if !held {
		return nil
	}

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		if current != token {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	return nil
}

// Stats reports connection-pool statistics for the /metrics endpoint.
func (c *RedisCache) Stats() *CacheStats {
	stats := c.client.PoolStats()
	return &CacheStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// CacheStats is a snapshot of the Redis connection pool's counters.
type CacheStats struct {
	Hits       uint32
	Misses     uint32
	Timeouts   uint32
	TotalConns uint32
	IdleConns  uint32
	StaleConns uint32
}

// Package cache provides the TTL cache collaborator used to memoize resolved
// Telegram file URLs. Each invocation of the pipeline is stateless, so the
// cache is injected explicitly and backed by Redis rather than kept as
// ambient in-process state.
package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLCache stores string values with a per-entry time-to-live.
type TTLCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// RedisCache implements TTLCache on a Redis client.
type RedisCache struct {
	Client *redis.Client
	Prefix string
}

// NewRedisCache creates a cache using the given key prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{Client: client, Prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.Client.Get(ctx, c.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Printf("WARN: cache get %s: %v", key, err)
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.Client.Set(ctx, c.Prefix+key, value, ttl).Err(); err != nil {
		log.Printf("WARN: cache set %s: %v", key, err)
	}
}

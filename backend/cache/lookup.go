// Package cache keeps the small, seed-loaded lookup tables (categories,
// difficulties) in redis so the authoring screens don't hit the database on
// every redraw.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	KeyCategories   = "lookup:categories"
	KeyDifficulties = "lookup:difficulties"
)

// LookupKeys are every key derived from the seeded lookup tables.
var LookupKeys = []string{KeyCategories, KeyDifficulties}

// LookupCache is safe to use as a nil pointer: every call degrades to a miss.
type LookupCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New returns nil when addr is empty so callers can run without redis.
func New(addr, password string, ttl time.Duration, log *zap.Logger) *LookupCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return NewWithClient(client, ttl, log)
}

func NewWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *LookupCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LookupCache{client: client, ttl: ttl, log: log.Named("lookup-cache")}
}

func (c *LookupCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get decodes the cached value into dst and reports whether it was a hit.
func (c *LookupCache) Get(ctx context.Context, key string, dst interface{}) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *LookupCache) Set(ctx context.Context, key string, v interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops keys so the next read goes to the database.
func (c *LookupCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *LookupCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

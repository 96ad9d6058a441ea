// Package cache provides a small Redis-backed cache for resolved display
// names. The dashboard resolves the same handful of member ids on every
// load; caching them trims a database round-trip per render.
//
// The cache is strictly best-effort: a nil *NameCache and any Redis failure
// both degrade to a miss, never to an error surfaced to the caller.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds staleness after an out-of-band profile change.
const DefaultTTL = 10 * time.Minute

// NameCache caches principal id → display name.
type NameCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a NameCache from a Redis URL ("redis://host:port/db").
// Returns an error only for an unparseable URL; connectivity problems
// surface later as cache misses.
func New(url string, ttl time.Duration) (*NameCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.New: parse url: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &NameCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *NameCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &NameCache{client: client, ttl: ttl}
}

func key(id string) string {
	return "displayname:" + id
}

// Get returns the cached display name for the id and whether it was present.
// A nil receiver or any Redis error reads as a miss.
func (c *NameCache) Get(ctx context.Context, id string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key(id)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores the display name for the id. Errors are dropped — a failed
// write just means a future miss.
func (c *NameCache) Set(ctx context.Context, id, name string) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, key(id), name, c.ttl).Err()
}

// Invalidate removes the cached name for the id. Called when a user
// registers or changes their nickname.
func (c *NameCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, key(id)).Err()
}

// Close releases the underlying Redis connection.
func (c *NameCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

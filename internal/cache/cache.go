// Package cache is a thin Redis wrapper used to memoize resample responses
// for a short TTL. Derived bars remain a pure function of the raw store; the
// cache only bounds recomputation under bursty dashboard traffic, and a miss
// is never an error.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client with a fixed TTL
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection
func New(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// BarsKey builds the cache key for one resample query
func BarsKey(code, period, session string, from, to time.Time) string {
	return fmt.Sprintf("bars:%s:%s:%s:%d:%d", code, period, session, from.Unix(), to.Unix())
}

// Get returns the cached payload for key, reporting whether it was present
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, true, nil
}

// Set stores a payload under key with the configured TTL
func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *Cache) Close() error {
	return c.client.Close()
}

// Package cache memoizes computed mappings in Redis for callers that ask for the same contract and
// range repeatedly. Cached values are derived data: a miss always falls back to recomputing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or the cache is disabled.
var ErrMiss = errors.New("cache miss")

// Key builds "<prefix>:cache:<parts joined by ':'>".
func (c *Client) Key(parts ...string) string {
	key := c.prefix + ":cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Get decodes the JSON value stored under key into dest.
func (c *Client) Get(ctx context.Context, key string, dest any) error {
	if !c.enabled {
		return ErrMiss
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Set stores value as JSON. A zero ttl uses the configured default.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// GetOrSet returns the cached value of key, or computes, stores and returns it. Cache errors never
// fail the call; only compute errors do.
func GetOrSet[T any](ctx context.Context, c *Client, key string, compute func() (T, error)) (T, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	value, err := compute()
	if err != nil {
		return value, err
	}
	_ = c.Set(ctx, key, value, 0)
	return value, nil
}

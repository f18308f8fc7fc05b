// Package cache is the key-value TTL cache used by reference listing endpoints.
// Values are opaque bytes so backends stay interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Cache returns the cached value for key, computing and storing it on a miss.
type Cache interface {
	Get(ctx context.Context, key string, compute ComputeFunc, ttl time.Duration) ([]byte, error)
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// GetJSON is a typed wrapper over Cache.Get that stores values as JSON.
func GetJSON[T any](ctx context.Context, c Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := c.Get(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}, ttl)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return out, nil
}

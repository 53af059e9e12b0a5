// Package cache provides a small generic TTL cache with in-memory and
// Redis backends. It backs the public tenant resolver's read path, where
// every anonymous request resolves a host header before any content can
// be served.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrCodec is returned when value (de)serialization fails.
	ErrCodec = errors.New("cache: failed to encode or decode value")
)

// Cache is a key-value cache with per-entry TTL. A zero TTL on Set uses
// the backend's configured default.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var sfGroup singleflight.Group

// GetOrSet returns the cached value for key, or computes it with fn on a
// miss. Concurrent misses for the same key are collapsed into a single fn
// call via singleflight, so a cold cache cannot stampede the store.
// Errors from fn are returned uncached.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	type result struct {
		val V
		ttl time.Duration
	}

	v, err, _ := sfGroup.Do(key, func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return result{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := v.(result)

	// Best effort; a failed write just means the next call recomputes.
	_ = c.Set(ctx, key, r.val, r.ttl)

	return r.val, nil
}

func marshal[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrCodec, err)
	}
	return data, nil
}

func unmarshal[V any](data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrCodec, err)
	}
	return v, nil
}

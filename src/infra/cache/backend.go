// Package cache implements the best-effort cache-aside store.
//
// A Store namespaces keys, serializes values as JSON and turns every backend
// failure into a domain.CacheResult, so callers on the primary read/write path
// never see a cache error. Two backends are available: Redis (shared across
// processes, guarded by a circuit breaker) and an in-process sturdyc cache.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Backend.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Backend stores raw bytes under fully-qualified keys.
type Backend interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete reports whether a live entry was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// Flush removes every key matching a Redis-style glob and returns how many
	// were removed, including on error when a partial flush already deleted some.
	Flush(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

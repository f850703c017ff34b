package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
)

// Store is the namespaced, soft-failing cache used by the rest of the system.
type Store struct {
	backend    Backend
	prefix     string
	defaultTTL time.Duration
	log        *slog.Logger
}

var _ ports.Cache = (*Store)(nil)

// New wraps a backend. Keys are stored as prefix+key.
func New(backend Backend, prefix string, defaultTTL time.Duration, log *slog.Logger) *Store {
	return &Store{
		backend:    backend,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

// NewFromConfig selects the backend named by cfg.Driver.
func NewFromConfig(cfg config.CacheConfig, redisCfg config.RedisConfig, log *slog.Logger) (*Store, error) {
	var backend Backend
	switch cfg.Driver {
	case "redis":
		backend = NewRedisBackend(redisCfg, log)
	case "memory":
		backend = NewMemoryBackend(cfg.MemoryCapacity, cfg.MemoryMaxTTL)
	default:
		return nil, domain.NewValidationError("cache.driver", fmt.Sprintf("unknown cache driver %q", cfg.Driver))
	}

	log.Info("cache configured", "driver", cfg.Driver, "prefix", cfg.KeyPrefix, "default_ttl", cfg.TTLDefault)
	return New(backend, cfg.KeyPrefix, cfg.TTLDefault, log), nil
}

// Set stores value as JSON. A non-positive ttl uses the default TTL.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) domain.CacheResult {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return s.unavailable("set", key, fmt.Errorf("encode value: %w", err))
	}
	if err := s.backend.Set(ctx, s.prefix+key, data, ttl); err != nil {
		return s.unavailable("set", key, err)
	}
	return domain.CacheResult{Status: domain.CacheOK}
}

// Get decodes a live entry into dest. Never-set, expired and undecodable
// entries are all reported as absent.
func (s *Store) Get(ctx context.Context, key string, dest any) domain.CacheResult {
	data, err := s.backend.Get(ctx, s.prefix+key)
	if errors.Is(err, ErrMiss) {
		return domain.CacheResult{Status: domain.CacheAbsent}
	}
	if err != nil {
		return s.unavailable("get", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return domain.CacheResult{Status: domain.CacheAbsent}
	}
	return domain.CacheResult{Status: domain.CacheHit}
}

// Delete removes key. Deleting a missing key succeeds with Count 0.
func (s *Store) Delete(ctx context.Context, key string) domain.CacheResult {
	removed, err := s.backend.Delete(ctx, s.prefix+key)
	if err != nil {
		return s.unavailable("delete", key, err)
	}
	res := domain.CacheResult{Status: domain.CacheOK}
	if removed {
		res.Count = 1
	}
	return res
}

// Flush removes every entry in this store's namespace whose key matches the
// glob pattern. An empty pattern flushes the whole namespace.
func (s *Store) Flush(ctx context.Context, pattern string) domain.CacheResult {
	if pattern == "" {
		pattern = "*"
	}
	n, err := s.backend.Flush(ctx, escapeGlob(s.prefix)+pattern)
	if err != nil {
		res := s.unavailable("flush", pattern, err)
		res.Count = n
		return res
	}
	s.log.Debug("cache flushed", "pattern", pattern, "removed", n)
	return domain.CacheResult{Status: domain.CacheOK, Count: n}
}

// Ping checks backend liveness.
func (s *Store) Ping(ctx context.Context) domain.CacheResult {
	if err := s.backend.Ping(ctx); err != nil {
		return s.unavailable("ping", "", err)
	}
	return domain.CacheResult{Status: domain.CacheOK}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) unavailable(op, key string, err error) domain.CacheResult {
	s.log.Warn("cache operation failed", "op", op, "key", key, "error", err)
	return domain.CacheResult{
		Status: domain.CacheUnavailable,
		Err: &domain.DomainError{
			Base:    domain.ErrCacheUnavailable,
			Message: op,
			Cause:   err,
		},
	}
}

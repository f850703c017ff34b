package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
)

// memCache is a ports.Cache over a map that can be switched off.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	down    bool
	sets    int
	deletes []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

var errCacheDown = &domain.DomainError{Base: domain.ErrCacheUnavailable, Cause: errors.New("connection refused")}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) domain.CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.down {
		return domain.CacheResult{Status: domain.CacheUnavailable, Err: errCacheDown}
	}
	b, _ := json.Marshal(value)
	c.entries[key] = b
	return domain.CacheResult{Status: domain.CacheOK}
}

func (c *memCache) Get(_ context.Context, key string, dest any) domain.CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return domain.CacheResult{Status: domain.CacheUnavailable, Err: errCacheDown}
	}
	b, ok := c.entries[key]
	if !ok {
		return domain.CacheResult{Status: domain.CacheAbsent}
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return domain.CacheResult{Status: domain.CacheAbsent}
	}
	return domain.CacheResult{Status: domain.CacheHit}
}

func (c *memCache) Delete(_ context.Context, key string) domain.CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, key)
	if c.down {
		return domain.CacheResult{Status: domain.CacheUnavailable, Err: errCacheDown}
	}
	delete(c.entries, key)
	return domain.CacheResult{Status: domain.CacheOK}
}

func (c *memCache) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type fakePool struct {
	stats  domain.PoolStats
	closed bool
}

func (p *fakePool) Stats() domain.PoolStats { return p.stats }
func (p *fakePool) Closed() bool            { return p.closed }

type fakeHost struct {
	pct float64
	err error
}

func (h fakeHost) MemoryUsedPercent(context.Context) (float64, error) { return h.pct, h.err }

package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

const (
	maxMemoryShards          = 64
	minEntriesPerShard       = 64
	memoryEvictionPercentage = 10
	memoryEvictionInterval   = time.Minute
)

// envelope carries its own deadline so each entry can have a different TTL;
// sturdyc only knows the client-wide maximum.
type envelope struct {
	data      []byte
	expiresAt time.Time
}

// MemoryBackend is an in-process Backend on top of a sharded sturdyc client.
// Expired entries are dropped lazily on read and by sturdyc's eviction sweep.
type MemoryBackend struct {
	client *sturdyc.Client[envelope]
	maxTTL time.Duration
	now    func() time.Time
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend holds up to capacity entries, none living longer than maxTTL.
func NewMemoryBackend(capacity int, maxTTL time.Duration) *MemoryBackend {
	return &MemoryBackend{
		client: sturdyc.New[envelope](
			capacity,
			shardsFor(capacity),
			maxTTL,
			memoryEvictionPercentage,
			sturdyc.WithEvictionInterval(memoryEvictionInterval),
		),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

// shardsFor keeps every shard large enough that two hot keys rarely evict each other.
func shardsFor(capacity int) int {
	return max(1, min(maxMemoryShards, capacity/minEntriesPerShard))
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > m.maxTTL {
		ttl = m.maxTTL
	}
	m.client.Set(key, envelope{data: value, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.live(key)
	if !ok {
		return nil, ErrMiss
	}
	return e.data, nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) (bool, error) {
	_, ok := m.live(key)
	m.client.Delete(key)
	return ok, nil
}

// Flush counts only entries that were still live when removed.
func (m *MemoryBackend) Flush(_ context.Context, pattern string) (int, error) {
	removed := 0
	for _, key := range m.client.ScanKeys() {
		if !matchGlob(pattern, key) {
			continue
		}
		if _, ok := m.live(key); ok {
			removed++
		}
		m.client.Delete(key)
	}
	return removed, nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }

// Len reports stored entries, including expired ones not yet swept.
func (m *MemoryBackend) Len() int {
	return m.client.Size()
}

func (m *MemoryBackend) live(key string) (envelope, bool) {
	e, ok := m.client.Get(key)
	if !ok {
		return envelope{}, false
	}
	if !m.now().Before(e.expiresAt) {
		m.client.Delete(key)
		return envelope{}, false
	}
	return e, true
}

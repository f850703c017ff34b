package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/logger"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemoryStore(t *testing.T, prefix string) (*Store, *MemoryBackend, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend(1000, 24*time.Hour)
	backend.now = clock.Now
	return New(backend, prefix, time.Hour, logger.Discard()), backend, clock
}

type vendorCard struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tags   []string `json:"tags"`
	Rating float64  `json:"rating"`
}

func TestStore_SetGet(t *testing.T) {
	s, _, _ := newMemoryStore(t, "fixrx:")
	ctx := context.Background()

	in := vendorCard{ID: "v-1", Name: "Ace Plumbing", Tags: []string{"plumbing"}, Rating: 4.5}
	res := s.Set(ctx, "vendor:v-1", in, time.Minute)
	assert.Equal(t, domain.CacheOK, res.Status)
	assert.True(t, res.OK())

	var out vendorCard
	res = s.Get(ctx, "vendor:v-1", &out)
	assert.True(t, res.Hit())
	assert.Equal(t, in, out)

	res = s.Get(ctx, "vendor:missing", &out)
	assert.Equal(t, domain.CacheAbsent, res.Status)
	assert.True(t, res.OK())
}

func TestStore_Expiry(t *testing.T) {
	s, _, clock := newMemoryStore(t, "fixrx:")
	ctx := context.Background()

	require.True(t, s.Set(ctx, "short", "x", 10*time.Second).OK())
	require.True(t, s.Set(ctx, "default", "y", 0).OK())

	var v string
	clock.Advance(9 * time.Second)
	assert.True(t, s.Get(ctx, "short", &v).Hit())

	clock.Advance(time.Second)
	assert.Equal(t, domain.CacheAbsent, s.Get(ctx, "short", &v).Status, "expired at exactly now+ttl")

	clock.Advance(59 * time.Minute)
	assert.True(t, s.Get(ctx, "default", &v).Hit())
	assert.Equal(t, "y", v)

	clock.Advance(time.Minute)
	assert.Equal(t, domain.CacheAbsent, s.Get(ctx, "default", &v).Status)
}

func TestStore_Overwrite(t *testing.T) {
	s, _, _ := newMemoryStore(t, "fixrx:")
	ctx := context.Background()

	s.Set(ctx, "k", 1, time.Minute)
	s.Set(ctx, "k", 2, time.Minute)

	var v int
	require.True(t, s.Get(ctx, "k", &v).Hit())
	assert.Equal(t, 2, v)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s, _, _ := newMemoryStore(t, "fixrx:")
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Minute)

	res := s.Delete(ctx, "k")
	assert.Equal(t, domain.CacheOK, res.Status)
	assert.Equal(t, 1, res.Count)

	res = s.Delete(ctx, "k")
	assert.Equal(t, domain.CacheOK, res.Status)
	assert.Equal(t, 0, res.Count)

	var v string
	assert.Equal(t, domain.CacheAbsent, s.Get(ctx, "k", &v).Status)
}

func TestStore_FlushCountsMatches(t *testing.T) {
	s, _, clock := newMemoryStore(t, "fixrx:")
	ctx := context.Background()

	s.Set(ctx, "geo:1", 1, time.Minute)
	s.Set(ctx, "geo:2", 2, time.Minute)
	s.Set(ctx, "geo:3", 3, time.Second)
	s.Set(ctx, "vendor:1", 4, time.Minute)
	clock.Advance(2 * time.Second)

	res := s.Flush(ctx, "geo:*")
	assert.Equal(t, domain.CacheOK, res.Status)
	assert.Equal(t, 2, res.Count, "expired entries are not counted")

	var v int
	assert.Equal(t, domain.CacheAbsent, s.Get(ctx, "geo:1", &v).Status)
	assert.True(t, s.Get(ctx, "vendor:1", &v).Hit())

	assert.Equal(t, 0, s.Flush(ctx, "geo:*").Count)
	assert.Equal(t, 1, s.Flush(ctx, "").Count)
}

func TestStore_FlushStaysInsideNamespace(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	backend := NewMemoryBackend(100, time.Hour)
	backend.now = clock.Now

	a := New(backend, "a:", time.Minute, logger.Discard())
	b := New(backend, "b:", time.Minute, logger.Discard())
	ctx := context.Background()

	a.Set(ctx, "k1", 1, 0)
	a.Set(ctx, "k2", 1, 0)
	b.Set(ctx, "k1", 1, 0)

	assert.Equal(t, 2, a.Flush(ctx, "*").Count)

	var v int
	assert.True(t, b.Get(ctx, "k1", &v).Hit())
}

func TestStore_UndecodableEntryIsAbsent(t *testing.T) {
	s, _, _ := newMemoryStore(t, "fixrx:")
	ctx := context.Background()

	s.Set(ctx, "k", "not a number", time.Minute)

	var v int
	assert.Equal(t, domain.CacheAbsent, s.Get(ctx, "k", &v).Status)
}

func TestStore_UnencodableValue(t *testing.T) {
	s, _, _ := newMemoryStore(t, "fixrx:")

	res := s.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Equal(t, domain.CacheUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrCacheUnavailable)
}

type brokenBackend struct{ err error }

func (b brokenBackend) Set(context.Context, string, []byte, time.Duration) error { return b.err }
func (b brokenBackend) Get(context.Context, string) ([]byte, error)              { return nil, b.err }
func (b brokenBackend) Delete(context.Context, string) (bool, error)             { return false, b.err }
func (b brokenBackend) Flush(context.Context, string) (int, error)               { return 0, b.err }
func (b brokenBackend) Ping(context.Context) error                               { return b.err }
func (b brokenBackend) Close() error                                             { return nil }

func TestStore_BackendFailuresAreResults(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	s := New(brokenBackend{err: down}, "fixrx:", time.Hour, logger.Discard())
	ctx := context.Background()

	var v string
	results := map[string]domain.CacheResult{
		"set":    s.Set(ctx, "k", "v", time.Minute),
		"get":    s.Get(ctx, "k", &v),
		"delete": s.Delete(ctx, "k"),
		"flush":  s.Flush(ctx, "*"),
		"ping":   s.Ping(ctx),
	}

	for op, res := range results {
		assert.Equal(t, domain.CacheUnavailable, res.Status, op)
		assert.False(t, res.OK(), op)
		assert.ErrorIs(t, res.Err, domain.ErrCacheUnavailable, op)
		assert.ErrorIs(t, res.Err, down, op)
	}
}

// partialFlushBackend deletes some keys and then loses the connection.
type partialFlushBackend struct {
	brokenBackend
	removed int
}

func (b partialFlushBackend) Flush(context.Context, string) (int, error) { return b.removed, b.err }

func TestStore_PartialFlushKeepsCount(t *testing.T) {
	lost := errors.New("connection reset by peer")
	s := New(partialFlushBackend{brokenBackend: brokenBackend{err: lost}, removed: 500}, "fixrx:", time.Hour, logger.Discard())

	res := s.Flush(context.Background(), "geo:*")
	assert.Equal(t, domain.CacheUnavailable, res.Status)
	assert.Equal(t, 500, res.Count)
	assert.ErrorIs(t, res.Err, lost)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.CacheConfig{
		Driver:         "memory",
		TTLDefault:     time.Hour,
		KeyPrefix:      "fixrx:",
		MemoryCapacity: 10,
		MemoryMaxTTL:   time.Hour,
	}

	s, err := NewFromConfig(cfg, config.RedisConfig{}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, s.backend)
	assert.True(t, s.Ping(context.Background()).OK())

	cfg.Driver = "memcached"
	_, err = NewFromConfig(cfg, config.RedisConfig{}, logger.Discard())
	assert.True(t, domain.IsValidationError(err))
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/logger"
)

type recordingHealthObserver struct {
	mu    sync.Mutex
	snaps []HealthSnapshot
}

func (o *recordingHealthObserver) ObserveHealth(_ context.Context, snap HealthSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snaps = append(o.snaps, snap)
}

func (o *recordingHealthObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.snaps)
}

type panickingObserver struct{}

func (panickingObserver) ObserveHealth(context.Context, HealthSnapshot) { panic("exporter exploded") }

func healthyPool() *fakePool {
	return &fakePool{stats: domain.PoolStats{TotalCount: 2, IdleCount: 2, MaxSize: 20}}
}

func newMonitor(pool *fakePool, cache *memCache, obs ...HealthObserver) *HealthMonitor {
	return NewHealthMonitor(pool, cache, fakeHost{pct: 41.5}, HealthMonitorConfig{
		Interval: 10 * time.Millisecond,
		ProbeTTL: time.Minute,
	}, logger.Discard(), obs...)
}

func TestHealthMonitor_CheckHealthy(t *testing.T) {
	cache := newMemCache()
	obs := &recordingHealthObserver{}
	m := newMonitor(healthyPool(), cache, obs)

	_, ok := m.Last()
	assert.False(t, ok)

	snap := m.Check(context.Background())

	assert.Equal(t, StatusOK, snap.Status)
	assert.True(t, snap.Healthy())
	assert.True(t, snap.CacheAlive)
	assert.Equal(t, 2, snap.Pool.TotalCount)
	require.NotNil(t, snap.HostMemoryUsedPercent)
	assert.InDelta(t, 41.5, *snap.HostMemoryUsedPercent, 1e-9)
	assert.Equal(t, ComponentHealthy, snap.Components["database"].Status)
	assert.Equal(t, ComponentHealthy, snap.Components["cache"].Status)
	assert.Equal(t, "memory 41.5% used", snap.Components["host"].Message)

	assert.True(t, strings.HasPrefix(m.ProbeKey(), "health_check:"))
	assert.False(t, cache.has(m.ProbeKey()), "probe entry is removed after the round trip")

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, snap.CheckedAt, last.CheckedAt)
	assert.Equal(t, 1, obs.count())
}

func TestHealthMonitor_DegradedWhenCacheDown(t *testing.T) {
	cache := newMemCache()
	cache.setDown(true)
	m := newMonitor(healthyPool(), cache)

	snap := m.Check(context.Background())

	assert.Equal(t, StatusDegraded, snap.Status)
	assert.False(t, snap.CacheAlive)
	assert.Equal(t, ComponentUnhealthy, snap.Components["cache"].Status)
	assert.Contains(t, snap.Components["cache"].Message, "cache unavailable")
}

func TestHealthMonitor_PoolStates(t *testing.T) {
	tests := []struct {
		name      string
		pool      *fakePool
		component string
	}{
		{"saturated", &fakePool{stats: domain.PoolStats{TotalCount: 4, IdleCount: 0, AcquiredCount: 4, WaitingCount: 3, MaxSize: 4}}, ComponentDegraded},
		{"closed", &fakePool{closed: true}, ComponentUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := newMonitor(tt.pool, newMemCache()).Check(context.Background())
			assert.Equal(t, StatusDegraded, snap.Status)
			assert.True(t, snap.CacheAlive)
			assert.Equal(t, tt.component, snap.Components["database"].Status)
		})
	}
}

func TestHealthMonitor_HostSampleFailureIsRecorded(t *testing.T) {
	m := NewHealthMonitor(healthyPool(), newMemCache(), fakeHost{err: errors.New("not implemented yet")},
		HealthMonitorConfig{Interval: time.Minute, ProbeTTL: time.Minute}, logger.Discard())

	snap := m.Check(context.Background())
	assert.Equal(t, StatusOK, snap.Status)
	assert.Nil(t, snap.HostMemoryUsedPercent)
	assert.Equal(t, ComponentDegraded, snap.Components["host"].Status)
}

func TestHealthMonitor_NilHostSkipsSample(t *testing.T) {
	m := NewHealthMonitor(healthyPool(), newMemCache(), nil,
		HealthMonitorConfig{Interval: time.Minute, ProbeTTL: time.Minute}, logger.Discard())

	snap := m.Check(context.Background())
	_, sampled := snap.Components["host"]
	assert.False(t, sampled)
}

func TestHealthMonitor_ObserverPanicIsContained(t *testing.T) {
	after := &recordingHealthObserver{}
	m := newMonitor(healthyPool(), newMemCache(), panickingObserver{}, after)

	var snap HealthSnapshot
	require.NotPanics(t, func() { snap = m.Check(context.Background()) })

	assert.Equal(t, 1, after.count(), "later observers still run")
	assert.Equal(t, ComponentDegraded, snap.Components["observers"].Status)
	assert.Equal(t, StatusOK, snap.Status)
}

func TestHealthMonitor_RunStopsOnCancel(t *testing.T) {
	cache := newMemCache()
	obs := &recordingHealthObserver{}
	m := newMonitor(healthyPool(), cache, obs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return obs.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.False(t, cache.has(m.ProbeKey()))
	cache.mu.Lock()
	lastDelete := cache.deletes[len(cache.deletes)-1]
	cache.mu.Unlock()
	assert.Equal(t, m.ProbeKey(), lastDelete, "probe key is removed on exit")

	n := obs.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, obs.count(), "no samples after Run returns")
}

func TestHealthMonitor_DistinctProbeKeys(t *testing.T) {
	a := newMonitor(healthyPool(), newMemCache())
	b := newMonitor(healthyPool(), newMemCache())
	assert.NotEqual(t, a.ProbeKey(), b.ProbeKey())
}

func TestLogObserver(t *testing.T) {
	var buf strings.Builder
	log := logger.NewWithWriter(config.LogConfig{Level: "info", Format: "plain"}, &buf)

	o := NewLogObserver(log)
	o.ObserveHealth(context.Background(), HealthSnapshot{Status: StatusOK, CacheAlive: true})
	o.ObserveHealth(context.Background(), HealthSnapshot{Status: StatusDegraded})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "INFO health snapshot status=ok"))
	assert.True(t, strings.HasPrefix(lines[1], "WARN health snapshot degraded status=degraded"))
}

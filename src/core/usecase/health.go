package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

// Overall snapshot status.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Component status.
const (
	ComponentHealthy   = "healthy"
	ComponentDegraded  = "degraded"
	ComponentUnhealthy = "unhealthy"
)

const (
	probeValue        = "ok"
	probeKeyPrefix    = "health_check:"
	probeCleanupLimit = 2 * time.Second
)

// HealthSnapshot is one passive sample of the data-access core.
type HealthSnapshot struct {
	Status                string                     `json:"status"`
	CheckedAt             time.Time                  `json:"checked_at"`
	Pool                  domain.PoolStats           `json:"pool"`
	CacheAlive            bool                       `json:"cache_alive"`
	ProbeLatency          time.Duration              `json:"-"`
	ProbeLatencyMs        float64                    `json:"probe_latency_ms"`
	HostMemoryUsedPercent *float64                   `json:"host_memory_used_percent,omitempty"`
	Components            map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Healthy reports whether the snapshot status is ok.
func (s HealthSnapshot) Healthy() bool {
	return s.Status == StatusOK
}

// HealthObserver receives every snapshot, e.g. to log or export it.
type HealthObserver interface {
	ObserveHealth(ctx context.Context, snap HealthSnapshot)
}

// HealthMonitorConfig controls sampling.
type HealthMonitorConfig struct {
	Interval time.Duration
	ProbeTTL time.Duration
}

// HealthMonitor samples pool statistics, a cache round trip and optionally
// host memory on a fixed interval. It only reads from the components it
// watches, apart from its own cache probe key.
type HealthMonitor struct {
	pool      ports.PoolStatsSource
	cache     ports.Cache
	host      ports.HostSampler
	observers []HealthObserver
	cfg       HealthMonitorConfig
	probeKey  string
	log       *slog.Logger
	now       func() time.Time

	mu   sync.RWMutex
	last *HealthSnapshot
}

// NewHealthMonitor creates a monitor. host may be nil to skip host sampling.
func NewHealthMonitor(
	pool ports.PoolStatsSource,
	cache ports.Cache,
	host ports.HostSampler,
	cfg HealthMonitorConfig,
	log *slog.Logger,
	observers ...HealthObserver,
) *HealthMonitor {
	return &HealthMonitor{
		pool:      pool,
		cache:     cache,
		host:      host,
		observers: observers,
		cfg:       cfg,
		probeKey:  probeKeyPrefix + uuid.NewString(),
		log:       log,
		now:       time.Now,
	}
}

// ProbeKey is the cache key this monitor writes during each check.
func (m *HealthMonitor) ProbeKey() string {
	return m.probeKey
}

// Run samples immediately and then every Interval until ctx is cancelled.
// On exit it removes the probe key and returns nil.
func (m *HealthMonitor) Run(ctx context.Context) error {
	m.log.Info("health monitor started", "interval", m.cfg.Interval, "probe_key", m.probeKey)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.cleanup(ctx)
			m.log.Info("health monitor stopped")
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check takes one sample, stores it as Last and hands it to every observer.
func (m *HealthMonitor) Check(ctx context.Context) HealthSnapshot {
	snap := HealthSnapshot{
		Status:     StatusOK,
		CheckedAt:  m.now().UTC(),
		Pool:       m.pool.Stats(),
		Components: make(map[string]ComponentHealth, 3),
	}

	poolHealth := m.poolHealth(snap.Pool)
	snap.Components["database"] = poolHealth

	latency, err := m.probeCache(ctx)
	snap.ProbeLatency = latency
	snap.ProbeLatencyMs = float64(latency.Microseconds()) / 1000
	snap.CacheAlive = err == nil
	if err != nil {
		snap.Components["cache"] = ComponentHealth{Status: ComponentUnhealthy, Message: err.Error()}
	} else {
		snap.Components["cache"] = ComponentHealth{Status: ComponentHealthy}
	}

	if m.host != nil {
		if pct, err := m.host.MemoryUsedPercent(ctx); err != nil {
			snap.Components["host"] = ComponentHealth{Status: ComponentDegraded, Message: err.Error()}
		} else {
			snap.HostMemoryUsedPercent = &pct
			snap.Components["host"] = ComponentHealth{
				Status:  ComponentHealthy,
				Message: fmt.Sprintf("memory %.1f%% used", pct),
			}
		}
	}

	if !snap.CacheAlive || poolHealth.Status != ComponentHealthy {
		snap.Status = StatusDegraded
	}

	if failed := m.notify(ctx, snap); failed > 0 {
		snap.Components["observers"] = ComponentHealth{
			Status:  ComponentDegraded,
			Message: fmt.Sprintf("%d observer(s) panicked", failed),
		}
	}

	m.mu.Lock()
	m.last = &snap
	m.mu.Unlock()
	return snap
}

// Last returns the most recent snapshot, if any.
func (m *HealthMonitor) Last() (HealthSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return HealthSnapshot{}, false
	}
	return *m.last, true
}

func (m *HealthMonitor) poolHealth(s domain.PoolStats) ComponentHealth {
	switch {
	case m.pool.Closed():
		return ComponentHealth{Status: ComponentUnhealthy, Message: "connection pool closed"}
	case s.Saturated():
		return ComponentHealth{
			Status:  ComponentDegraded,
			Message: fmt.Sprintf("all %d connections in use, %d waiting", s.MaxSize, s.WaitingCount),
		}
	default:
		return ComponentHealth{Status: ComponentHealthy}
	}
}

// probeCache writes, reads back and deletes the probe key.
func (m *HealthMonitor) probeCache(ctx context.Context) (time.Duration, error) {
	start := m.now()

	if res := m.cache.Set(ctx, m.probeKey, probeValue, m.cfg.ProbeTTL); !res.OK() {
		return m.now().Sub(start), res.Err
	}

	var got string
	res := m.cache.Get(ctx, m.probeKey, &got)
	switch {
	case !res.OK():
		return m.now().Sub(start), res.Err
	case !res.Hit():
		return m.now().Sub(start), errors.New("probe value not found after write")
	case got != probeValue:
		return m.now().Sub(start), fmt.Errorf("probe value mismatch: got %q", got)
	}

	if res := m.cache.Delete(ctx, m.probeKey); !res.OK() {
		return m.now().Sub(start), res.Err
	}
	return m.now().Sub(start), nil
}

// notify returns how many observers panicked.
func (m *HealthMonitor) notify(ctx context.Context, snap HealthSnapshot) int {
	failed := 0
	for _, o := range m.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					failed++
					m.log.Error("health observer panicked", "observer", fmt.Sprintf("%T", o), "panic", r)
				}
			}()
			o.ObserveHealth(ctx, snap)
		}()
	}
	return failed
}

func (m *HealthMonitor) cleanup(ctx context.Context) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeCleanupLimit)
	defer cancel()
	if res := m.cache.Delete(cctx, m.probeKey); !res.OK() {
		m.log.Warn("failed to remove health probe key", "key", m.probeKey, "error", res.Err)
	}
}

// LogObserver writes each snapshot to a structured logger.
type LogObserver struct {
	log *slog.Logger
}

// NewLogObserver creates an observer logging through log.
func NewLogObserver(log *slog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) ObserveHealth(ctx context.Context, snap HealthSnapshot) {
	attrs := []any{
		"status", snap.Status,
		"pool_total", snap.Pool.TotalCount,
		"pool_idle", snap.Pool.IdleCount,
		"pool_waiting", snap.Pool.WaitingCount,
		"pool_max", snap.Pool.MaxSize,
		"cache_alive", snap.CacheAlive,
		"probe_latency_ms", snap.ProbeLatencyMs,
	}
	if snap.HostMemoryUsedPercent != nil {
		attrs = append(attrs, "host_memory_used_percent", *snap.HostMemoryUsedPercent)
	}

	if snap.Healthy() {
		o.log.InfoContext(ctx, "health snapshot", attrs...)
		return
	}
	o.log.WarnContext(ctx, "health snapshot degraded", attrs...)
}

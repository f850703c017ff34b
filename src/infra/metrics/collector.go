// Package metrics exports pool, cache, query and health figures to Prometheus
// and samples host resources for health snapshots.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/usecase"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/db"
)

// Collector holds the Prometheus metrics for the data-access core. Each
// Collector owns its registry, so several can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	poolConnections *prometheus.GaugeVec
	poolMax         prometheus.Gauge
	cacheUp         prometheus.Gauge
	probeLatency    prometheus.Gauge
	hostMemory      prometheus.Gauge
	healthChecks    *prometheus.CounterVec

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

var (
	_ db.QueryObserver       = (*Collector)(nil)
	_ usecase.HealthObserver = (*Collector)(nil)
)

// NewCollector creates and registers every metric under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		poolConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_connections",
				Help:      "Connections in the pool by state",
			},
			[]string{"state"},
		),
		poolMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_max_connections",
			Help:      "Configured upper bound on pool connections",
		}),
		cacheUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_up",
			Help:      "1 if the last cache probe round trip succeeded",
		}),
		probeLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_probe_latency_seconds",
			Help:      "Latency of the last cache probe round trip",
		}),
		hostMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_memory_used_percent",
			Help:      "Host memory in use at the last health check",
		}),
		healthChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "health_checks_total",
				Help:      "Health checks by resulting status",
			},
			[]string{"status"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_queries_total",
				Help:      "Statements executed by command and outcome",
			},
			[]string{"command", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Statement execution time",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
	}

	registry.MustRegister(
		c.poolConnections,
		c.poolMax,
		c.cacheUp,
		c.probeLatency,
		c.hostMemory,
		c.healthChecks,
		c.queries,
		c.queryDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveQuery records one statement.
func (c *Collector) ObserveQuery(command string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.queries.WithLabelValues(command, status).Inc()
	c.queryDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// ObserveHealth mirrors a health snapshot into gauges.
func (c *Collector) ObserveHealth(_ context.Context, snap usecase.HealthSnapshot) {
	c.poolConnections.WithLabelValues("total").Set(float64(snap.Pool.TotalCount))
	c.poolConnections.WithLabelValues("idle").Set(float64(snap.Pool.IdleCount))
	c.poolConnections.WithLabelValues("acquired").Set(float64(snap.Pool.AcquiredCount))
	c.poolConnections.WithLabelValues("waiting").Set(float64(snap.Pool.WaitingCount))
	c.poolMax.Set(float64(snap.Pool.MaxSize))

	if snap.CacheAlive {
		c.cacheUp.Set(1)
	} else {
		c.cacheUp.Set(0)
	}
	c.probeLatency.Set(snap.ProbeLatency.Seconds())

	if snap.HostMemoryUsedPercent != nil {
		c.hostMemory.Set(*snap.HostMemoryUsedPercent)
	}
	c.healthChecks.WithLabelValues(snap.Status).Inc()
}

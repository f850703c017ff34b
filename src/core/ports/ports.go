// Package ports defines interfaces (ports) that connect the core to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live under src/infra. This keeps the core free of driver dependencies.
package ports

import (
	"context"
	"time"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
)

// Querier executes a single statement and returns its collected rows.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*domain.QueryResult, error)
}

// PoolStatsSource exposes pool statistics without granting access to connections.
type PoolStatsSource interface {
	Stats() domain.PoolStats
	Closed() bool
}

// VendorFinder runs proximity searches.
type VendorFinder interface {
	FindInRadius(ctx context.Context, req domain.GeoSearchRequest) ([]domain.Vendor, error)
}

// Cache is the soft-failing cache-aside surface used by the core.
// Backend failures come back as CacheUnavailable results, never as errors.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) domain.CacheResult
	Get(ctx context.Context, key string, dest any) domain.CacheResult
	Delete(ctx context.Context, key string) domain.CacheResult
}

// HostSampler reports host-level resource usage for health snapshots.
type HostSampler interface {
	MemoryUsedPercent(ctx context.Context) (float64, error)
}

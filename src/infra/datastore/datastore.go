// Package datastore is the single entry point to the data-access core. A
// DataStore is opened once at process start and passed to whoever needs
// queries, transactions, caching or proximity search.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/cache"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/db"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/logger"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/repo"
)

// DataStore composes the pool, the cache and the geo search engine.
type DataStore struct {
	pool  *db.Pool
	cache *cache.Store
	geo   *repo.GeoSearchEngine
	log   *slog.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

var (
	_ ports.Querier         = (*DataStore)(nil)
	_ ports.PoolStatsSource = (*DataStore)(nil)
	_ ports.VendorFinder    = (*DataStore)(nil)
	_ db.TxRunner           = (*DataStore)(nil)
)

// Open connects to PostgreSQL and the configured cache backend. The cache
// never blocks startup; an unreachable Redis is logged and retried per call.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...db.Option) (*DataStore, error) {
	opts = append([]db.Option{db.WithSlowQueryThreshold(cfg.Database.SlowQueryThreshold)}, opts...)

	pool, err := db.Open(ctx,
		db.PoolConfigFrom(cfg.Database),
		db.PostgresConnector(cfg.Database),
		logger.WithComponent(log, "db"),
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	store, err := cache.NewFromConfig(cfg.Cache, cfg.Redis, logger.WithComponent(log, "cache"))
	if err != nil {
		_ = pool.Close(ctx)
		return nil, err
	}
	if res := store.Ping(ctx); !res.OK() {
		log.Warn("cache backend unreachable at startup, continuing without it", "error", res.Err)
	}

	return New(pool, store, log), nil
}

// New composes already-built parts.
func New(pool *db.Pool, store *cache.Store, log *slog.Logger) *DataStore {
	return &DataStore{
		pool:  pool,
		cache: store,
		geo:   repo.NewGeoSearchEngine(pool, logger.WithComponent(log, "geo")),
		log:   log,
	}
}

// Query runs one statement on a pooled connection.
func (d *DataStore) Query(ctx context.Context, sql string, args ...any) (*domain.QueryResult, error) {
	return d.pool.Query(ctx, sql, args...)
}

// RunInTransaction runs work on a single connection inside BEGIN/COMMIT.
func (d *DataStore) RunInTransaction(ctx context.Context, work db.TxFunc) error {
	return d.pool.RunInTransaction(ctx, work)
}

// InTransaction runs work atomically and returns its value.
func InTransaction[T any](ctx context.Context, d *DataStore, work func(ctx context.Context, q ports.Querier) (T, error)) (T, error) {
	return db.InTransaction(ctx, d, work)
}

// SetCache stores value under key and reports whether the write reached the backend.
func (d *DataStore) SetCache(ctx context.Context, key string, value any, ttl time.Duration) bool {
	return d.cache.Set(ctx, key, value, ttl).OK()
}

// GetCache decodes the live entry under key into dest and reports whether it was found.
func (d *DataStore) GetCache(ctx context.Context, key string, dest any) bool {
	return d.cache.Get(ctx, key, dest).Hit()
}

// DeleteCache removes key and reports whether the backend was reachable.
func (d *DataStore) DeleteCache(ctx context.Context, key string) bool {
	return d.cache.Delete(ctx, key).OK()
}

// FlushCache removes entries matching pattern and returns how many were removed.
func (d *DataStore) FlushCache(ctx context.Context, pattern string) int {
	return d.cache.Flush(ctx, pattern).Count
}

// FindInRadius returns active vendors near (lat, lng), nearest first.
func (d *DataStore) FindInRadius(ctx context.Context, req domain.GeoSearchRequest) ([]domain.Vendor, error) {
	return d.geo.FindInRadius(ctx, req)
}

// FindNear is FindInRadius with positional arguments.
func (d *DataStore) FindNear(ctx context.Context, lat, lng, radiusKm float64, categories ...string) ([]domain.Vendor, error) {
	return d.geo.FindInRadius(ctx, domain.GeoSearchRequest{
		Latitude:          lat,
		Longitude:         lng,
		RadiusKm:          radiusKm,
		ServiceCategories: categories,
	})
}

// Stats returns the pool counters.
func (d *DataStore) Stats() domain.PoolStats {
	return d.pool.Stats()
}

// Closed reports whether the pool has been shut down.
func (d *DataStore) Closed() bool {
	return d.pool.Closed()
}

// CacheAlive pings the cache backend.
func (d *DataStore) CacheAlive(ctx context.Context) bool {
	return d.cache.Ping(ctx).OK()
}

// Cache exposes the cache store, e.g. for the health monitor.
func (d *DataStore) Cache() *cache.Store {
	return d.cache
}

// Shutdown closes the cache and then drains and closes the pool. Later calls
// return the first result.
func (d *DataStore) Shutdown(ctx context.Context) error {
	d.shutdownOnce.Do(func() {
		d.log.Info("shutting down datastore")
		var errs []error
		if err := d.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
		if err := d.pool.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close pool: %w", err))
		}
		d.shutdownErr = errors.Join(errs...)
	})
	return d.shutdownErr
}

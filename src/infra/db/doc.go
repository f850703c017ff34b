// Package db provides pooled PostgreSQL connections, timed query execution and
// transaction management.
//
// This package is responsible for:
//   - Connection pooling with min/max bounds, acquire timeouts and idle eviction
//   - Query execution with timing, tracing and slow-query logging
//   - Transactions with guaranteed rollback and connection release
//
// Example usage:
//
//	pool, err := db.Open(ctx, poolCfg, db.PostgresConnector(cfg.Database), log)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close(ctx)
//
//	err = pool.RunInTransaction(ctx, func(ctx context.Context, q ports.Querier) error {
//	    _, err := q.Query(ctx, "UPDATE vendors SET status = $1 WHERE id = $2", "active", id)
//	    return err
//	})
package db

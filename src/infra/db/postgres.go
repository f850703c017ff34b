package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
)

// Driver is a single open connection to the backing store. *pgx.Conn satisfies it.
type Driver interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	IsClosed() bool
}

var _ Driver = (*pgx.Conn)(nil)

// Connector opens a new Driver. The pool bounds each call with its connect timeout.
type Connector func(ctx context.Context) (Driver, error)

// PostgresConnector returns a Connector dialing PostgreSQL with pgx.
func PostgresConnector(cfg config.DatabaseConfig) Connector {
	return func(ctx context.Context) (Driver, error) {
		connCfg, err := pgx.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to parse database config: %w", err)
		}
		connCfg.ConnectTimeout = cfg.ConnectTimeout
		connCfg.RuntimeParams["application_name"] = "fixrx"

		conn, err := pgx.ConnectConfig(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// PoolConfigFrom maps the environment configuration onto pool bounds.
func PoolConfigFrom(cfg config.DatabaseConfig) domain.PoolConfiguration {
	return domain.PoolConfiguration{
		MinSize:          cfg.MinConns,
		MaxSize:          cfg.MaxConns,
		IdleTimeout:      cfg.IdleTimeout,
		AcquireTimeout:   cfg.AcquireTimeout,
		EvictionInterval: cfg.EvictionInterval,
		ConnectTimeout:   cfg.ConnectTimeout,
	}
}

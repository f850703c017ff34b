package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/logger"
)

// Runs against a real server when APP_TEST_POSTGRES=1; connection settings
// come from the usual APP_DB_* variables.
func TestPostgres_RoundTrip(t *testing.T) {
	if os.Getenv("APP_TEST_POSTGRES") != "1" {
		t.Skip("set APP_TEST_POSTGRES=1 to run against PostgreSQL")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := Open(ctx, PoolConfigFrom(cfg.Database), PostgresConnector(cfg.Database), logger.Discard())
	require.NoError(t, err)
	defer p.Close(context.Background())

	res, err := p.Query(ctx, "SELECT $1::int + 1 AS n", 41)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 42, res.Rows[0]["n"])

	err = p.RunInTransaction(ctx, func(ctx context.Context, q ports.Querier) error {
		if _, err := q.Query(ctx, "CREATE TEMP TABLE probe (v int) ON COMMIT DROP"); err != nil {
			return err
		}
		_, err := q.Query(ctx, "INSERT INTO probe (v) VALUES ($1)", 1)
		return err
	})
	require.NoError(t, err)

	_, err = p.Query(ctx, "SELEC 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42601")
}

package db

import (
	"context"
	"sync/atomic"

	"github.com/jackc/puddle/v2"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

// Conn is a checked-out connection. It belongs to exactly one caller until
// Release or Destroy is called, and must not be used afterwards.
type Conn struct {
	pool     *Pool
	res      *puddle.Resource[Driver]
	released atomic.Bool
}

var _ ports.Querier = (*Conn)(nil)

func newConn(p *Pool, r *puddle.Resource[Driver]) *Conn {
	return &Conn{pool: p, res: r}
}

// Query runs a statement on this connection.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (*domain.QueryResult, error) {
	if c.released.Load() {
		return nil, domain.ErrAlreadyReleased
	}
	return c.pool.run(ctx, c.res.Value(), sql, args)
}

// exec issues a control statement such as BEGIN and returns its command tag.
func (c *Conn) exec(ctx context.Context, sql string) (string, error) {
	if c.released.Load() {
		return "", domain.ErrAlreadyReleased
	}
	tag, err := c.res.Value().Exec(ctx, sql)
	if err != nil {
		return "", newQueryError(sql, err)
	}
	return tag.String(), nil
}

// Release returns the connection to the idle set. A connection the server has
// already closed is destroyed instead. Releasing twice returns
// domain.ErrAlreadyReleased.
func (c *Conn) Release() error {
	if !c.released.CompareAndSwap(false, true) {
		c.pool.log.Warn("connection released more than once")
		return domain.ErrAlreadyReleased
	}
	if c.res.Value().IsClosed() {
		c.res.Destroy()
		return nil
	}
	c.res.Release()
	return nil
}

// Destroy closes the connection and removes it from the pool. It counts as the
// connection's release.
func (c *Conn) Destroy() error {
	if !c.released.CompareAndSwap(false, true) {
		c.pool.log.Warn("connection released more than once")
		return domain.ErrAlreadyReleased
	}
	c.res.Destroy()
	return nil
}

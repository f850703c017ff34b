package db

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

// rollbackTimeout bounds ROLLBACK after the caller's context is gone.
const rollbackTimeout = 5 * time.Second

// errServerAborted is reported when COMMIT comes back as ROLLBACK because a
// statement inside the transaction failed and the error was swallowed.
var errServerAborted = errors.New("transaction aborted by server")

type txKey struct{}

// TxFunc is a unit of work executed on the single connection held by a
// transaction. Statements run in program order.
type TxFunc func(ctx context.Context, q ports.Querier) error

// TxRunner runs a TxFunc atomically.
type TxRunner interface {
	RunInTransaction(ctx context.Context, work TxFunc) error
}

// InTx reports whether ctx belongs to an active transaction.
func InTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// RunInTransaction holds one connection for the duration of work, wrapping it
// in BEGIN/COMMIT. If work returns an error or panics, ROLLBACK is issued and
// the connection is released before the error is returned (as a
// *domain.TransactionError) or the panic resumes. A connection whose rollback
// fails is destroyed rather than returned to the pool.
//
// Calling RunInTransaction with a context that already carries a transaction
// fails with domain.ErrNestedTransaction.
func (p *Pool) RunInTransaction(ctx context.Context, work TxFunc) error {
	if InTx(ctx) {
		return domain.ErrNestedTransaction
	}

	ctx, span := p.tracer.Start(ctx, "db.transaction")
	defer span.End()

	conn, err := p.Acquire(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "acquire failed")
		return err
	}

	if _, err := conn.exec(ctx, "BEGIN"); err != nil {
		_ = conn.Destroy()
		span.SetStatus(codes.Error, "begin failed")
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, conn)

	defer func() {
		if r := recover(); r != nil {
			p.rollback(ctx, conn)
			panic(r)
		}
	}()

	if werr := work(txCtx, conn); werr != nil {
		span.RecordError(werr)
		span.SetStatus(codes.Error, "rolled back")
		return &domain.TransactionError{Err: werr, RollbackErr: p.rollback(ctx, conn)}
	}

	tag, cerr := conn.exec(ctx, "COMMIT")
	if cerr == nil && tag == "ROLLBACK" {
		cerr = errServerAborted
	}
	if cerr != nil {
		span.RecordError(cerr)
		span.SetStatus(codes.Error, "commit failed")
		return &domain.TransactionError{Err: cerr, RollbackErr: p.rollback(ctx, conn)}
	}

	_ = conn.Release()
	return nil
}

// rollback issues ROLLBACK on a context detached from cancellation and gives
// the connection back, destroying it if the rollback failed.
func (p *Pool) rollback(ctx context.Context, conn *Conn) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if _, err := conn.exec(rctx, "ROLLBACK"); err != nil {
		p.log.Error("rollback failed, discarding connection", "error", err)
		_ = conn.Destroy()
		return err
	}
	_ = conn.Release()
	return nil
}

// InTransaction runs work atomically through r and returns its value.
func InTransaction[T any](ctx context.Context, r TxRunner, work func(ctx context.Context, q ports.Querier) (T, error)) (T, error) {
	var out T
	err := r.RunInTransaction(ctx, func(ctx context.Context, q ports.Querier) error {
		v, err := work(ctx, q)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

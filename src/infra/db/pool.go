package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
)

const tracerName = "github.com/yash-surviantllc/FixRx-sub003/src/infra/db"

// QueryObserver receives the outcome of every statement, e.g. for metrics.
type QueryObserver interface {
	ObserveQuery(command string, duration time.Duration, err error)
}

// Option configures optional Pool behaviour.
type Option func(*Pool)

// WithSlowQueryThreshold logs statements slower than d at warn level. Zero disables it.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(p *Pool) { p.slowQuery = d }
}

// WithQueryObserver registers an observer notified after each statement.
func WithQueryObserver(o QueryObserver) Option {
	return func(p *Pool) { p.observer = o }
}

// WithTracer overrides the OpenTelemetry tracer used for query spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pool) { p.tracer = t }
}

// Pool keeps between MinSize and MaxSize live connections and lends each one to
// a single caller at a time.
type Pool struct {
	cfg       domain.PoolConfiguration
	res       *puddle.Pool[Driver]
	log       *slog.Logger
	tracer    trace.Tracer
	observer  QueryObserver
	slowQuery time.Duration

	waiting atomic.Int64
	closed  atomic.Bool

	closeOnce sync.Once
	closeErr  error
	stop      chan struct{}
	stopped   chan struct{}
}

// Open builds the pool, establishes connectivity and starts idle eviction.
// It fails with a domain.ErrConnection error if the store cannot be reached
// within cfg.ConnectTimeout.
func Open(ctx context.Context, cfg domain.PoolConfiguration, connect Connector, log *slog.Logger, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:     cfg,
		log:     log,
		tracer:  otel.Tracer(tracerName),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	res, err := puddle.NewPool(&puddle.Config[Driver]{
		Constructor: p.constructor(connect),
		Destructor:  p.destructor,
		MaxSize:     int32(cfg.MaxSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	p.res = res

	if err := p.warmUp(ctx); err != nil {
		res.Close()
		return nil, err
	}

	go p.evictLoop()

	log.Info("connection pool ready",
		"min", cfg.MinSize,
		"max", cfg.MaxSize,
		"idle_timeout", cfg.IdleTimeout,
		"acquire_timeout", cfg.AcquireTimeout,
	)
	return p, nil
}

func (p *Pool) constructor(connect Connector) puddle.Constructor[Driver] {
	return func(ctx context.Context) (Driver, error) {
		ctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()

		d, err := connect(ctx)
		if err != nil {
			return nil, domain.NewConnectionError("connect failed", err)
		}
		return d, nil
	}
}

func (p *Pool) destructor(d Driver) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnectTimeout)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		p.log.Debug("closing connection failed", "error", err)
	}
}

// warmUp opens MinSize connections, or verifies one round trip when MinSize is zero.
func (p *Pool) warmUp(ctx context.Context) error {
	for i := 0; i < p.cfg.MinSize; i++ {
		if err := p.res.CreateResource(ctx); err != nil {
			return asConnectionError(err)
		}
	}
	if p.cfg.MinSize > 0 {
		return nil
	}

	r, err := p.res.Acquire(ctx)
	if err != nil {
		return asConnectionError(err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()
	if err := r.Value().Ping(pingCtx); err != nil {
		r.Destroy()
		return domain.NewConnectionError("ping failed", err)
	}
	r.Release()
	return nil
}

func asConnectionError(err error) error {
	if errors.Is(err, domain.ErrConnection) {
		return err
	}
	return domain.NewConnectionError("connect failed", err)
}

// Acquire checks out a connection. Callers that cannot be served immediately
// queue in FIFO order until a connection frees up or AcquireTimeout elapses
// (domain.ErrPoolExhausted). After Close it fails with domain.ErrPoolClosed.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, domain.ErrPoolClosed
	}

	// Room to grow starts a background connect bounded by ConnectTimeout, which
	// must outlive a cancelled caller.
	r, err := p.res.TryAcquire(context.WithoutCancel(ctx))
	if err == nil {
		return newConn(p, r), nil
	}
	if !errors.Is(err, puddle.ErrNotAvailable) {
		return nil, p.acquireError(ctx, err)
	}

	p.waiting.Add(1)
	defer p.waiting.Add(-1)

	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	r, err = p.res.Acquire(waitCtx)
	if err != nil {
		return nil, p.acquireError(ctx, err)
	}
	return newConn(p, r), nil
}

func (p *Pool) acquireError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, puddle.ErrClosedPool):
		return domain.ErrPoolClosed
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: no connection available within %s", domain.ErrPoolExhausted, p.cfg.AcquireTimeout)
	default:
		return asConnectionError(err)
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() domain.PoolStats {
	s := p.res.Stat()
	return domain.PoolStats{
		TotalCount:    int(s.TotalResources()),
		IdleCount:     int(s.IdleResources()),
		AcquiredCount: int(s.AcquiredResources()),
		WaitingCount:  int(p.waiting.Load()),
		MaxSize:       int(s.MaxResources()),
	}
}

// Config returns the bounds the pool was opened with.
func (p *Pool) Config() domain.PoolConfiguration {
	return p.cfg
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	return p.closed.Load()
}

// Close rejects new acquisitions, waits for checked-out connections to come
// back and closes every connection. If ctx expires first the remaining
// connections are closed in the background as they are released.
// Calling Close more than once returns the first result.
func (p *Pool) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.stop)
		<-p.stopped

		inUse := p.res.Stat().AcquiredResources()
		drained := make(chan struct{})
		go func() {
			p.res.Close()
			close(drained)
		}()

		select {
		case <-drained:
			p.log.Info("connection pool closed")
		case <-ctx.Done():
			p.closeErr = fmt.Errorf("connection pool shutdown with %d connections in use: %w", inUse, ctx.Err())
			p.log.Warn("connection pool shutdown timed out", "in_use", inUse)
		}
	})
	return p.closeErr
}

func (p *Pool) evictLoop() {
	defer close(p.stopped)

	ticker := time.NewTicker(p.cfg.EvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if n := p.evictIdle(); n > 0 {
				p.log.Debug("evicted idle connections", "count", n)
			}
			p.ensureMin()
		}
	}
}

// evictIdle destroys connections idle longer than IdleTimeout, or already
// closed by the server, without dropping below MinSize.
func (p *Pool) evictIdle() int {
	idle := p.res.AcquireAllIdle()
	total := int(p.res.Stat().TotalResources())

	evicted := 0
	for _, r := range idle {
		if r.Value().IsClosed() || (r.IdleDuration() > p.cfg.IdleTimeout && total-evicted > p.cfg.MinSize) {
			r.Destroy()
			evicted++
			continue
		}
		r.ReleaseUnused()
	}
	return evicted
}

// ensureMin tops the pool back up to MinSize.
func (p *Pool) ensureMin() {
	for int(p.res.Stat().TotalResources()) < p.cfg.MinSize {
		if p.closed.Load() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnectTimeout)
		err := p.res.CreateResource(ctx)
		cancel()
		if err != nil {
			p.log.Warn("failed to replenish connection pool", "error", err)
			return
		}
	}
}

package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

// maxStatementShape bounds the SQL text kept in errors, logs and spans.
const maxStatementShape = 160

var _ ports.Querier = (*Pool)(nil)

// Query acquires a connection, runs one statement and releases the connection
// on every path.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (*domain.QueryResult, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return conn.Query(ctx, sql, args...)
}

func (p *Pool) run(ctx context.Context, d Driver, sql string, args []any) (*domain.QueryResult, error) {
	shape := statementShape(sql)
	command := commandOf(sql)

	ctx, span := p.tracer.Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", command),
			attribute.String("db.statement", shape),
		),
	)
	defer span.End()

	start := time.Now()
	records, tag, err := collect(ctx, d, sql, args)
	elapsed := time.Since(start)

	if p.observer != nil {
		p.observer.ObserveQuery(command, elapsed, err)
	}

	if err != nil {
		qerr := newQueryError(sql, err)
		span.RecordError(qerr)
		span.SetStatus(codes.Error, qerr.SQLState)
		p.log.Debug("query failed",
			"statement", shape,
			"duration_ms", elapsed.Milliseconds(),
			"sqlstate", qerr.SQLState,
		)
		return nil, qerr
	}

	rowCount := tag.RowsAffected()
	if n := int64(len(records)); n > rowCount {
		rowCount = n
	}
	span.SetAttributes(attribute.Int64("db.rows", rowCount))

	if p.slowQuery > 0 && elapsed > p.slowQuery {
		p.log.Warn("slow query",
			"statement", shape,
			"duration_ms", elapsed.Milliseconds(),
			"rows", rowCount,
		)
	} else {
		p.log.Debug("query executed",
			"statement", shape,
			"duration_ms", elapsed.Milliseconds(),
			"rows", rowCount,
		)
	}

	return &domain.QueryResult{
		Rows:       records,
		RowCount:   rowCount,
		CommandTag: tag.String(),
		Duration:   elapsed,
	}, nil
}

func collect(ctx context.Context, d Driver, sql string, args []any) ([]map[string]any, pgconn.CommandTag, error) {
	rows, err := d.Query(ctx, sql, args...)
	if err != nil {
		return nil, pgconn.CommandTag{}, err
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, pgconn.CommandTag{}, err
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records, rows.CommandTag(), nil
}

// newQueryError keeps the statement shape and SQLSTATE, never the arguments.
func newQueryError(sql string, err error) *domain.QueryError {
	qerr := &domain.QueryError{
		Statement: statementShape(sql),
		Err:       err,
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		qerr.SQLState = pgErr.Code
	}
	return qerr
}

// statementShape collapses whitespace and truncates long statements.
func statementShape(sql string) string {
	shape := strings.Join(strings.Fields(sql), " ")
	if len(shape) > maxStatementShape {
		return shape[:maxStatementShape] + "..."
	}
	return shape
}

// knownCommands bounds the values commandOf can return; it labels metrics.
var knownCommands = map[string]struct{}{
	"SELECT": {}, "INSERT": {}, "UPDATE": {}, "DELETE": {}, "WITH": {},
	"BEGIN": {}, "COMMIT": {}, "ROLLBACK": {}, "SAVEPOINT": {}, "RELEASE": {},
	"CREATE": {}, "ALTER": {}, "DROP": {}, "TRUNCATE": {}, "COPY": {},
	"SET": {}, "SHOW": {}, "EXPLAIN": {}, "VALUES": {}, "CALL": {},
}

// commandOf returns the statement's leading verb, or OTHER when the verb is
// not a known SQL command.
func commandOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	verb := strings.ToUpper(strings.TrimLeft(fields[0], "("))
	if i := strings.IndexAny(verb, "(;"); i >= 0 {
		verb = verb[:i]
	}
	if _, ok := knownCommands[verb]; ok {
		return verb
	}
	return "OTHER"
}

// Package dbtest provides an in-memory stand-in for PostgreSQL connections so
// pool, transaction and facade behaviour can be tested without a server.
//
// Statements are interpreted loosely:
//   - BEGIN / COMMIT / ROLLBACK manage a per-connection write buffer
//   - INSERT INTO <table> stores its first argument as {"value": arg}
//   - SELECT ... FROM <table> returns the table's rows (committed rows plus
//     the connection's own uncommitted writes)
//   - SELECT without FROM returns a single row {"?column?": 1}
//   - any statement containing "syntax error" fails with SQLSTATE 42601
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConnClosed is returned by statements issued on a closed connection.
var ErrConnClosed = errors.New("conn closed")

// Store is shared by every connection it opens.
type Store struct {
	mu         sync.Mutex
	tables     map[string][]map[string]any
	statements []string
	connectErr error

	connects atomic.Int64
	closes   atomic.Int64

	// Delay is applied to every statement; the statement fails with the
	// context error if ctx ends first.
	Delay time.Duration
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string][]map[string]any)}
}

// Connect opens a connection. It is shaped like db.Connector.
func (s *Store) Connect(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	err := s.connectErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.connects.Add(1)
	return &Conn{store: s}, nil
}

// FailConnect makes subsequent Connect calls fail with err; nil restores them.
func (s *Store) FailConnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectErr = err
}

// SetRows replaces a table's committed rows.
func (s *Store) SetRows(table string, rows []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append([]map[string]any(nil), rows...)
}

// Rows returns a copy of a table's committed rows.
func (s *Store) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.tables[table]...)
}

// Statements returns every statement executed, in order.
func (s *Store) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statements...)
}

// Open reports connections opened and not yet closed.
func (s *Store) Open() int {
	return int(s.connects.Load() - s.closes.Load())
}

// Connects reports the total number of connections ever opened.
func (s *Store) Connects() int {
	return int(s.connects.Load())
}

// Conn is a fake connection. It is not safe for concurrent use, matching pgx.Conn.
type Conn struct {
	store   *Store
	closed  atomic.Bool
	inTx    bool
	pending map[string][]map[string]any
}

// Query runs a statement and returns its rows.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	records, tag, err := c.execute(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return NewRows(records, tag), nil
}

// Exec runs a statement and discards its rows.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	_, tag, err := c.execute(ctx, sql, args)
	return tag, err
}

// Ping fails once the connection is closed.
func (c *Conn) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	return ctx.Err()
}

// Close marks the connection closed. Closing twice is a no-op.
func (c *Conn) Close(context.Context) error {
	if c.closed.CompareAndSwap(false, true) {
		c.store.closes.Add(1)
	}
	return nil
}

// IsClosed reports whether Close was called.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Kill simulates the server dropping the connection.
func (c *Conn) Kill() {
	_ = c.Close(context.Background())
}

func (c *Conn) execute(ctx context.Context, sql string, args []any) ([]map[string]any, pgconn.CommandTag, error) {
	if c.closed.Load() {
		return nil, pgconn.CommandTag{}, ErrConnClosed
	}
	if d := c.store.Delay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, pgconn.CommandTag{}, ctx.Err()
		}
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, sql)

	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return nil, pgconn.NewCommandTag(""), nil
	}
	if strings.Contains(strings.ToLower(sql), "syntax error") {
		return nil, pgconn.CommandTag{}, &pgconn.PgError{Severity: "ERROR", Code: "42601", Message: "syntax error at or near \"syntax\""}
	}

	switch strings.ToUpper(fields[0]) {
	case "BEGIN":
		c.inTx = true
		c.pending = make(map[string][]map[string]any)
		return nil, pgconn.NewCommandTag("BEGIN"), nil
	case "COMMIT":
		for table, rows := range c.pending {
			s.tables[table] = append(s.tables[table], rows...)
		}
		c.inTx, c.pending = false, nil
		return nil, pgconn.NewCommandTag("COMMIT"), nil
	case "ROLLBACK":
		c.inTx, c.pending = false, nil
		return nil, pgconn.NewCommandTag("ROLLBACK"), nil
	case "INSERT":
		table := wordAfter(fields, "INTO")
		row := map[string]any{}
		if len(args) > 0 {
			row["value"] = args[0]
		}
		if c.inTx {
			c.pending[table] = append(c.pending[table], row)
		} else {
			s.tables[table] = append(s.tables[table], row)
		}
		return nil, pgconn.NewCommandTag("INSERT 0 1"), nil
	case "SELECT":
		table := wordAfter(fields, "FROM")
		if table == "" {
			return []map[string]any{{"?column?": int32(1)}}, pgconn.NewCommandTag("SELECT 1"), nil
		}
		rows := append([]map[string]any(nil), s.tables[table]...)
		if c.inTx {
			rows = append(rows, c.pending[table]...)
		}
		return rows, pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(rows))), nil
	default:
		return nil, pgconn.NewCommandTag(strings.ToUpper(fields[0])), nil
	}
}

func wordAfter(fields []string, keyword string) string {
	for i, f := range fields {
		if strings.EqualFold(f, keyword) && i+1 < len(fields) {
			return strings.Trim(fields[i+1], "();")
		}
	}
	return ""
}

// Rows is a pgx.Rows over in-memory records. Columns are the sorted keys of
// the first record.
type Rows struct {
	fields  []pgconn.FieldDescription
	records []map[string]any
	tag     pgconn.CommandTag
	idx     int
	closed  bool
}

var _ pgx.Rows = (*Rows)(nil)

// NewRows builds a result set.
func NewRows(records []map[string]any, tag pgconn.CommandTag) *Rows {
	r := &Rows{records: records, tag: tag, idx: -1}
	if len(records) > 0 {
		names := make([]string, 0, len(records[0]))
		for name := range records[0] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r.fields = append(r.fields, pgconn.FieldDescription{Name: name})
		}
	}
	return r
}

func (r *Rows) Close()                                       { r.closed = true }
func (r *Rows) Err() error                                   { return nil }
func (r *Rows) CommandTag() pgconn.CommandTag                { return r.tag }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	if r.idx >= len(r.records) {
		r.closed = true
		return false
	}
	return true
}

func (r *Rows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.records) {
		return nil, errors.New("no current row")
	}
	rec := r.records[r.idx]
	out := make([]any, len(r.fields))
	for i, f := range r.fields {
		out[i] = rec[f.Name]
	}
	return out, nil
}

func (r *Rows) Scan(dest ...any) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	values, err := r.Values()
	if err != nil {
		return err
	}
	if len(dest) != len(values) {
		return fmt.Errorf("expected %d destinations, got %d", len(values), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return fmt.Errorf("unsupported scan destination %T", d)
		}
		*p = values[i]
	}
	return nil
}

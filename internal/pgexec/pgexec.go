// Package pgexec runs compiled statements against PostgreSQL through the pgx
// database/sql driver.
package pgexec

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

// MaxRows caps the rows Query reads before truncating.
const MaxRows = 1000

// Execer is the subset of *sql.DB and *sql.Tx used to run statements.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Result holds rows read by Query, rendered as strings.
type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// String formats the result as a table.
func (r *Result) String() string {
	s := FormatTable(r.Columns, r.Rows)
	if r.Truncated {
		s += fmt.Sprintf("(truncated at %d rows)\n", MaxRows)
	}
	return s
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for statement tracing.
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) { d.logger = l }
}

// DB wraps a *sql.DB with statement logging and schema introspection for
// completion.
type DB struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.Mutex
	columns map[string][]string
}

// Open connects to dsn and pings the server.
func Open(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return New(db, opts...), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, opts ...Option) *DB {
	d := &DB{
		db:      db,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		columns: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs a statement that returns rows. NULL values render as "NULL".
func (d *DB) Query(ctx context.Context, query string, params []any) (*Result, error) {
	d.logger.Debug("query", "sql", query, "params", len(params))
	rows, err := d.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return readRows(rows)
}

// Exec runs a statement and returns the number of affected rows.
func (d *DB) Exec(ctx context.Context, query string, params []any) (int64, error) {
	d.logger.Debug("exec", "sql", query, "params", len(params))
	res, err := d.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ApplyDDL runs schema change statements in order. They share one
// transaction unless one of them builds or drops an index CONCURRENTLY,
// which PostgreSQL refuses inside a transaction block.
func (d *DB) ApplyDDL(ctx context.Context, stmts []string) error {
	if len(stmts) == 0 {
		return nil
	}
	if !Transactional(stmts) {
		d.logger.Info("applying ddl without transaction", "statements", len(stmts))
		return applyAll(ctx, d.db, stmts)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := applyAll(ctx, tx, stmts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	d.logger.Info("applied ddl", "statements", len(stmts))
	return nil
}

// Transactional reports whether stmts may run inside one transaction.
func Transactional(stmts []string) bool {
	for _, s := range stmts {
		if strings.Contains(strings.ToUpper(s), " CONCURRENTLY ") {
			return false
		}
	}
	return true
}

func applyAll(ctx context.Context, db Execer, stmts []string) error {
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Tables lists the tables of the public schema.
func (d *DB) Tables(ctx context.Context) ([]string, error) {
	return d.queryStringColumn(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name")
}

// Columns lists the columns of a public table. Results are cached.
func (d *DB) Columns(ctx context.Context, table string) ([]string, error) {
	d.mu.Lock()
	cols, ok := d.columns[table]
	d.mu.Unlock()
	if ok {
		return cols, nil
	}
	cols, err := d.queryStringColumn(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position",
		table)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.columns[table] = cols
	d.mu.Unlock()
	return cols, nil
}

func (d *DB) queryStringColumn(ctx context.Context, query string, params ...any) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func readRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	res := &Result{Columns: columns}
	for rows.Next() {
		if len(res.Rows) >= MaxRows {
			res.Truncated = true
			break
		}
		vals := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return res, nil
}

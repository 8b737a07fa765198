package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/querykit/dialect"
)

// Driver is a dialect.Database implementation for SQL based databases.
type Driver struct {
	Conn
	db *sql.DB
}

// NewDriver creates a new Driver with the given dialect and *sql.DB.
func NewDriver(dialect string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: dialect}, db: db}
}

// Open wraps the database/sql.Open method and returns a Driver.
// The driver name is used as the dialect.
func Open(dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(dialect, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, db)
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// ExecQuerier wraps the standard Query methods shared by *sql.DB, *sql.Tx
// and *sql.Conn.
type ExecQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn implements dialect.Database given an ExecQuerier. Use it directly to
// run builder queries inside a caller-managed transaction:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	q := query.New(sql.NewConn(dialect.Postgres, tx))
type Conn struct {
	ExecQuerier
	dialect string
}

// NewConn returns a Conn for the given dialect.
func NewConn(dialect string, eq ExecQuerier) Conn {
	return Conn{ExecQuerier: eq, dialect: dialect}
}

// Dialect returns the dialect name, stripping any driver suffix such as
// "postgres+otel".
func (c Conn) Dialect() string {
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(c.dialect, name) {
			return name
		}
	}
	if c.dialect == "sqlite" {
		return dialect.SQLite
	}
	return c.dialect
}

// Query implements the dialect.Database method.
func (c Conn) Query(ctx context.Context, query string, params map[string]any, offset, limit int) (dialect.Rows, error) {
	stmt, args, err := Bind(c.Dialect(), query+c.limitClause(offset, limit), params)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	rows, err := c.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("dialect/sql: query: columns: %w", err), rows.Close())
	}
	return &Rows{ColumnScanner: rows, columns: columns}, nil
}

// Count implements the dialect.Database method.
func (c Conn) Count(ctx context.Context, query string, params map[string]any) (int64, error) {
	stmt, args, err := Bind(c.Dialect(), query, params)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: count: %w", err)
	}
	var n sql.NullInt64
	if err := c.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("dialect/sql: count: %w", err)
	}
	return n.Int64, nil
}

// Exists implements the dialect.Database method.
func (c Conn) Exists(ctx context.Context, query string, params map[string]any) (exists bool, rerr error) {
	stmt, args, err := Bind(c.Dialect(), query, params)
	if err != nil {
		return false, fmt.Errorf("dialect/sql: exists: %w", err)
	}
	rows, err := c.QueryContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("dialect/sql: exists: %w", err)
	}
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	exists = rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("dialect/sql: exists: %w", err)
	}
	return exists, nil
}

// LikeEscape implements dialect.LikeEscaper. MySQL treats the backslash
// as an escape character inside string literals.
func (c Conn) LikeEscape() string {
	if c.Dialect() == dialect.MySQL {
		return `'\\'`
	}
	return `'\'`
}

// InClause implements the dialect.InClauseBuilder method.
func (Conn) InClause(values []any, prefix string) (string, map[string]any) {
	return dialect.NamedInClause.InClause(values, prefix)
}

// limitClause renders LIMIT/OFFSET for the dialect. Databases that do not
// accept a bare OFFSET get their "no limit" form.
func (c Conn) limitClause(offset, limit int) string {
	switch {
	case limit > 0 && offset > 0:
		return "\nLIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case limit > 0:
		return "\nLIMIT " + strconv.Itoa(limit)
	case offset > 0:
		switch c.Dialect() {
		case dialect.MySQL:
			return "\nLIMIT 18446744073709551615 OFFSET " + strconv.Itoa(offset)
		case dialect.SQLite:
			return "\nLIMIT -1 OFFSET " + strconv.Itoa(offset)
		default:
			return "\nOFFSET " + strconv.Itoa(offset)
		}
	}
	return ""
}

var _ dialect.Database = (*Driver)(nil)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// Rows implements dialect.Rows by scanning each row into a dialect.Row.
type Rows struct {
	ColumnScanner
	columns []string
}

// Columns returns the column names of the result set.
func (r *Rows) Columns() []string {
	return r.columns
}

// Row scans the current row. Byte slices are copied into strings since
// database/sql reuses their backing memory between rows.
func (r *Rows) Row() (dialect.Row, error) {
	values := make([]any, len(r.columns))
	dest := make([]any, len(r.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.Scan(dest...); err != nil {
		return nil, fmt.Errorf("dialect/sql: scan: %w", err)
	}
	row := make(dialect.Row, len(r.columns))
	for i, name := range r.columns {
		if b, ok := values[i].([]byte); ok {
			row[name] = string(b)
			continue
		}
		row[name] = values[i]
	}
	return row, nil
}

package dialect

import (
	"context"
	"strconv"
	"strings"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Rows is a forward-only cursor over a result set. Callers must call Close
// on every exit path.
type Rows interface {
	Next() bool
	Row() (Row, error)
	Err() error
	Close() error
}

// InClauseBuilder renders an IN clause with one named placeholder per value.
type InClauseBuilder interface {
	// InClause returns the fragment, e.g. "IN (:status__in1,:status__in2)",
	// and the generated parameter map. Keys are prefix followed by a
	// 1-based index.
	InClause(values []any, prefix string) (string, map[string]any)
}

// Database executes the statements rendered by a query builder. Statements
// use named placeholders (:name) bound from params.
type Database interface {
	InClauseBuilder
	// Query executes the statement and returns a cursor over its rows.
	// A zero limit means no limit.
	Query(ctx context.Context, query string, params map[string]any, offset, limit int) (Rows, error)
	// Count executes the statement and returns the integer in the first
	// column of the first row.
	Count(ctx context.Context, query string, params map[string]any) (int64, error)
	// Exists reports whether the statement returns at least one row.
	Exists(ctx context.Context, query string, params map[string]any) (bool, error)
}

// InClauseFunc is an adapter to allow the use of ordinary functions as
// InClauseBuilder.
type InClauseFunc func(values []any, prefix string) (string, map[string]any)

// InClause calls f(values, prefix).
func (f InClauseFunc) InClause(values []any, prefix string) (string, map[string]any) {
	return f(values, prefix)
}

// NamedInClause is the default InClauseBuilder. An empty value list renders
// a predicate that matches nothing.
var NamedInClause InClauseBuilder = InClauseFunc(namedInClause)

func namedInClause(values []any, prefix string) (string, map[string]any) {
	if len(values) == 0 {
		return "IN (NULL)", map[string]any{}
	}
	var (
		b      strings.Builder
		params = make(map[string]any, len(values))
	)
	b.WriteString("IN (")
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		key := prefix + strconv.Itoa(i+1)
		b.WriteByte(':')
		b.WriteString(key)
		params[key] = v
	}
	b.WriteByte(')')
	return b.String(), params
}

// LikeEscaper is implemented by databases that need a dialect specific
// literal for the backslash LIKE escape character.
type LikeEscaper interface {
	// LikeEscape returns the string literal following ESCAPE, e.g. '\'.
	LikeEscape() string
}

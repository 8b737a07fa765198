// Package dialect defines the contract between the query builder and the
// database that executes its statements.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite3"
//
// # Database Interface
//
// Statements are rendered with named placeholders (:name) and executed
// through the Database interface:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, params map[string]any, offset, limit int) (Rows, error)
//	    Count(ctx context.Context, query string, params map[string]any) (int64, error)
//	    Exists(ctx context.Context, query string, params map[string]any) (bool, error)
//	    InClause(values []any, prefix string) (string, map[string]any)
//	}
//
// The dialect/sql sub-package implements it on top of database/sql and
// rewrites named placeholders into the positional form each dialect expects.
//
// # IN clauses
//
// NamedInClause renders one placeholder per value:
//
//	frag, params := dialect.NamedInClause.InClause([]any{"todo", "open"}, "status__in")
//	// frag   = "IN (:status__in1,:status__in2)"
//	// params = {"status__in1": "todo", "status__in2": "open"}
package dialect

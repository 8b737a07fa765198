// Package sql implements dialect.Database on top of database/sql.
//
// Statements produced by the query builder use named placeholders. The
// driver rewrites them into the positional form of each dialect before
// execution and appends the LIMIT/OFFSET clause:
//
//	drv, err := sql.Open("postgres", dsn)
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
//	q := query.New(drv).
//	    From("users", "u").
//	    Where("u.age > :age", map[string]any{"age": 18}).
//	    Limit(10)
//	for row, err := range q.Rows(ctx) {
//	    ...
//	}
//
// # Placeholders
//
//	// PostgreSQL: numbered, a repeated name is bound once
//	sql.Bind(dialect.Postgres, "a > :v OR b > :v", params)  // a > $1 OR b > $1
//
//	// MySQL / SQLite: positional
//	sql.Bind(dialect.MySQL, "a > :v OR b > :v", params)     // a > ? OR b > ?
//
// # Transactions
//
// Transaction management is left to the caller. Wrap a *sql.Tx with NewConn
// to run builder statements inside it.
//
// # Statistics
//
// NewStatsDatabase wraps any dialect.Database with counters and slow query
// detection logged through log/slog.
package sql

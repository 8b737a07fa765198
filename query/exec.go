package query

import (
	"context"
	"iter"
	"log/slog"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
)

// UseLogger sets the logger executed statements are reported to at debug
// level. The default logger is used when none is set.
func (q *Query) UseLogger(l *slog.Logger) *Query {
	q.log = l
	return q
}

func (q *Query) logger() *slog.Logger {
	if q.log != nil {
		return q.log
	}
	return slog.Default()
}

// prepare renders the statement and checks that it can be executed.
func (q *Query) prepare(ctx context.Context, op string) (string, error) {
	stmt, err := q.ToSQL()
	if err != nil {
		return "", err
	}
	if q.db == nil {
		return "", querykit.NewConfigurationError("no database set for %s", op)
	}
	q.logger().DebugContext(ctx, "executing query",
		"op", op, "sql", stmt, "params", q.params, "limit", q.limit, "offset", q.offset)
	return stmt, nil
}

// Count returns the number of rows matched by the query. The projection is
// replaced by COUNT(1) and limit/offset are cleared on a clone; the
// receiver is not modified. DISTINCT and grouped queries are counted
// through a subquery so that the result is the number of rows they return.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.distinct || len(q.groupBy) > 0 {
		c := q.Clone().Limit(0)
		stmt, err := c.prepare(ctx, "count")
		if err != nil {
			return 0, err
		}
		return c.db.Count(ctx, "SELECT COUNT(1)\nFROM ("+stmt+") counted", c.params)
	}
	c := q.Clone().ResetSelect().Select("COUNT(1)").Limit(0)
	stmt, err := c.prepare(ctx, "count")
	if err != nil {
		return 0, err
	}
	return c.db.Count(ctx, stmt, c.params)
}

// Exists reports whether the query matches at least one row. It runs on a
// clone with projection "1" and limit 1.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	c := q.Clone().ResetSelect().Select("1").Limit(1, q.offset)
	stmt, err := c.prepare(ctx, "exists")
	if err != nil {
		return false, err
	}
	return c.db.Exists(ctx, stmt, c.params)
}

// First returns the first row matched by the query, or nil if there is
// none. It runs on a clone limited to one row.
func (q *Query) First(ctx context.Context) (dialect.Row, error) {
	c := q.Clone().Limit(1, q.offset)
	for row, err := range c.Rows(ctx) {
		return row, err
	}
	return nil, nil
}

// Rows executes the query and returns its rows as a lazy, single-use
// sequence. Nothing is executed until the sequence is ranged over. The
// database cursor is closed when the sequence is exhausted, when the loop
// exits early and when an error occurs. An error is yielded once with a
// nil row and ends the sequence.
//
//	for row, err := range q.Rows(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func (q *Query) Rows(ctx context.Context) iter.Seq2[dialect.Row, error] {
	return func(yield func(dialect.Row, error) bool) {
		stmt, err := q.prepare(ctx, "rows")
		if err != nil {
			yield(nil, err)
			return
		}
		rows, err := q.db.Query(ctx, stmt, q.params, q.offset, q.limit)
		if err != nil {
			yield(nil, err)
			return
		}
		stopped := false
		defer func() {
			if err := rows.Close(); err != nil && !stopped {
				yield(nil, err)
			}
		}()
		for rows.Next() {
			row, err := rows.Row()
			if err != nil {
				stopped = true
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				stopped = true
				return
			}
		}
		if err := rows.Err(); err != nil {
			stopped = true
			yield(nil, err)
		}
	}
}

// Package dbtest provides an in-memory dialect.Database that records the
// statements it receives.
package dbtest

import (
	"context"
	"maps"
	"sync"

	"github.com/syssam/querykit/dialect"
)

// Call is a statement received by the Database.
type Call struct {
	Op     string // "query", "count" or "exists"
	SQL    string
	Params map[string]any
	Offset int
	Limit  int
}

// Database serves a fixed list of rows. Query applies offset and limit to
// the list; Count returns CountResult, or the number of rows when it is
// negative; Exists reports whether there is at least one row.
type Database struct {
	Data        []dialect.Row
	CountResult int64
	Err         error // returned by every call when set
	RowErr      error // returned by Rows.Row when set

	mu     sync.Mutex
	calls  []Call
	opened int
	closed int
}

// New returns a Database serving rows.
func New(rows ...dialect.Row) *Database {
	return &Database{Data: rows, CountResult: -1}
}

// Calls returns the statements received so far.
func (d *Database) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallsOf returns the statements of the given operation.
func (d *Database) CallsOf(op string) []Call {
	var calls []Call
	for _, c := range d.Calls() {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Open returns the number of cursors that were opened and not closed.
func (d *Database) Open() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened - d.closed
}

func (d *Database) record(c Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.Params = maps.Clone(c.Params)
	d.calls = append(d.calls, c)
}

// Query implements dialect.Database.
func (d *Database) Query(_ context.Context, query string, params map[string]any, offset, limit int) (dialect.Rows, error) {
	d.record(Call{Op: "query", SQL: query, Params: params, Offset: offset, Limit: limit})
	if d.Err != nil {
		return nil, d.Err
	}
	data := d.Data
	if offset >= len(data) {
		data = nil
	} else {
		data = data[offset:]
	}
	if limit > 0 && limit < len(data) {
		data = data[:limit]
	}
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return &rows{db: d, data: data, pos: -1}, nil
}

// Count implements dialect.Database.
func (d *Database) Count(_ context.Context, query string, params map[string]any) (int64, error) {
	d.record(Call{Op: "count", SQL: query, Params: params})
	if d.Err != nil {
		return 0, d.Err
	}
	if d.CountResult < 0 {
		return int64(len(d.Data)), nil
	}
	return d.CountResult, nil
}

// Exists implements dialect.Database.
func (d *Database) Exists(_ context.Context, query string, params map[string]any) (bool, error) {
	d.record(Call{Op: "exists", SQL: query, Params: params})
	if d.Err != nil {
		return false, d.Err
	}
	return len(d.Data) > 0, nil
}

// InClause implements dialect.InClauseBuilder.
func (d *Database) InClause(values []any, prefix string) (string, map[string]any) {
	return dialect.NamedInClause.InClause(values, prefix)
}

type rows struct {
	db     *Database
	data   []dialect.Row
	pos    int
	closed bool
}

func (r *rows) Next() bool {
	if r.closed || r.pos+1 >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *rows) Row() (dialect.Row, error) {
	if r.db.RowErr != nil {
		return nil, r.db.RowErr
	}
	return maps.Clone(r.data[r.pos]), nil
}

func (r *rows) Err() error { return nil }

func (r *rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.db.mu.Lock()
	r.db.closed++
	r.db.mu.Unlock()
	return nil
}

var _ dialect.Database = (*Database)(nil)

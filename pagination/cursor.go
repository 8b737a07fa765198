package pagination

import (
	"context"
	"iter"
	"strings"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
	"github.com/syssam/querykit/query"
)

// CursorParam is the parameter bound to the cursor value.
const CursorParam = "pagination_cursor"

// Cursor paginates a query forward on a unique, ordered column. One row
// beyond the limit is fetched to detect the next page.
type Cursor struct {
	query     *query.Query
	field     string
	limit     int
	cursor    any
	next      any
	lookahead any
	hasNext   bool
	consumed  bool
}

// NewCursor returns a paginator ordering q by field, using the limit of q
// as page size. The field may be qualified with a table alias.
func NewCursor(q *query.Query, field string) *Cursor {
	limit, _ := q.LimitOffset()
	return &Cursor{query: q, field: field, limit: limit}
}

// SetLimit sets the page size. It must be positive when rows are read.
func (c *Cursor) SetLimit(limit int) *Cursor {
	c.limit = limit
	return c
}

// Limit returns the page size.
func (c *Cursor) Limit() int { return c.limit }

// SetCursor sets the value after which the page starts. Nil starts from
// the first row.
func (c *Cursor) SetCursor(v any) *Cursor {
	c.cursor = v
	return c
}

// Cursor returns the value after which the page starts.
func (c *Cursor) Cursor() any { return c.cursor }

// SetCursorField sets the ordering column.
func (c *Cursor) SetCursorField(field string) *Cursor {
	c.field = field
	return c
}

// CursorField returns the ordering column.
func (c *Cursor) CursorField() string { return c.field }

// rowKey returns the result column of the cursor field, without alias.
func (c *Cursor) rowKey() string {
	if i := strings.LastIndexByte(c.field, '.'); i >= 0 {
		return c.field[i+1:]
	}
	return c.field
}

// Rows returns the rows of the page. The next cursor is known once the
// sequence is exhausted; breaking out early leaves it unknown.
func (c *Cursor) Rows(ctx context.Context) iter.Seq2[dialect.Row, error] {
	return func(yield func(dialect.Row, error) bool) {
		c.consumed, c.hasNext = false, false
		c.next, c.lookahead = nil, nil
		if c.limit <= 0 {
			yield(nil, querykit.NewConfigurationError("cursor pagination requires a positive limit, got %d", c.limit))
			return
		}
		q := c.query.Clone().ResetOrderBy().OrderBy(c.field, query.Asc)
		if c.cursor != nil {
			q.Where(c.field+" > :"+CursorParam, map[string]any{CursorParam: c.cursor})
		}
		q.Limit(c.limit+1, 0)
		var (
			n    int
			last any
			key  = c.rowKey()
		)
		for row, err := range q.Rows(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			n++
			if n > c.limit {
				c.lookahead = row[key]
				continue
			}
			last = row[key]
			if !yield(row, nil) {
				return
			}
		}
		if n > c.limit {
			c.hasNext, c.next = true, last
		}
		c.consumed = true
	}
}

// NextCursor returns the cursor of the next page, the key of the last row
// of this page, or nil on the last page.
func (c *Cursor) NextCursor() (any, error) {
	if !c.consumed {
		return nil, ErrNotConsumed
	}
	return c.next, nil
}

// LookaheadCursor returns the key of the first row of the next page, or nil
// on the last page. Passing it to SetCursor skips that row.
func (c *Cursor) LookaheadCursor() (any, error) {
	if !c.consumed {
		return nil, ErrNotConsumed
	}
	return c.lookahead, nil
}

// HasNext reports whether a further page exists. It is false until the rows
// have been consumed.
func (c *Cursor) HasNext() bool {
	return c.consumed && c.hasNext
}

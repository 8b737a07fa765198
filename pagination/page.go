package pagination

import (
	"context"
	"errors"
	"iter"

	"github.com/syssam/querykit/dialect"
	"github.com/syssam/querykit/query"
)

// ErrNotConsumed is returned by the paginator accessors that depend on the
// rows before the row sequence has been fully consumed.
var ErrNotConsumed = errors.New("pagination: rows not consumed")

// Page paginates a query by page number. The query is never modified; each
// Rows call runs on a clone.
type Page struct {
	query    *query.Query
	limit    int
	page     int
	total    int64
	consumed bool
}

// NewPage returns a paginator on the first page of q, using the limit of q
// as page size.
func NewPage(q *query.Query) *Page {
	limit, _ := q.LimitOffset()
	return &Page{query: q, limit: limit, page: 1}
}

// SetLimit sets the page size. Zero means a single unbounded page.
func (p *Page) SetLimit(limit int) *Page {
	p.limit = max(limit, 0)
	return p
}

// Limit returns the page size.
func (p *Page) Limit() int { return p.limit }

// SetPage sets the 1-based page number. Values below 1 select the first page.
func (p *Page) SetPage(page int) *Page {
	p.page = max(page, 1)
	return p
}

// PageNumber returns the 1-based page number.
func (p *Page) PageNumber() int { return p.page }

// Rows returns the rows of the current page. The total is computed once the
// sequence is exhausted; breaking out early leaves it unknown.
func (p *Page) Rows(ctx context.Context) iter.Seq2[dialect.Row, error] {
	return func(yield func(dialect.Row, error) bool) {
		p.consumed = false
		q := p.query.Clone().Limit(p.limit, (p.page-1)*p.limit)
		var n int
		for row, err := range q.Rows(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			n++
			if !yield(row, nil) {
				return
			}
		}
		if p.page == 1 && n == 0 {
			p.total = 0
		} else {
			total, err := q.Count(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			p.total = total
		}
		p.consumed = true
	}
}

// Total returns the number of rows matched by the query, ignoring
// pagination.
func (p *Page) Total() (int64, error) {
	if !p.consumed {
		return 0, ErrNotConsumed
	}
	return p.total, nil
}

// TotalPages returns the number of pages, 0 when the page size is 0.
func (p *Page) TotalPages() (int64, error) {
	if !p.consumed {
		return 0, ErrNotConsumed
	}
	if p.limit == 0 {
		return 0, nil
	}
	limit := int64(p.limit)
	return (p.total + limit - 1) / limit, nil
}

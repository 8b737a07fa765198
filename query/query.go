package query

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
)

// Direction is an ORDER BY direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Query is a fluent SELECT statement builder. Setters mutate the receiver
// and return it, so a Query shared between callers must be cloned before
// it is modified.
type Query struct {
	distinct bool
	fields   []string
	from     string
	joins    []string
	where    []string
	groupBy  []string
	having   []string
	orderBy  []string
	limit    int
	offset   int
	params   map[string]any
	db       dialect.Database
	log      *slog.Logger
	errs     []error
}

// New returns an empty Query executed through db. db may be nil for
// queries that are only rendered.
func New(db dialect.Database) *Query {
	return &Query{
		fields: []string{"*"},
		params: make(map[string]any),
		db:     db,
	}
}

// UseDatabase overrides the database the query is executed with.
func (q *Query) UseDatabase(db dialect.Database) *Query {
	q.db = db
	return q
}

// Distinct sets the DISTINCT flag of the SELECT clause.
func (q *Query) Distinct(distinct bool) *Query {
	q.distinct = distinct
	return q
}

// Select appends fields to the projection. The default projection "*" is
// kept unless ResetSelect is called first.
func (q *Query) Select(fields ...string) *Query {
	q.fields = append(q.fields, fields...)
	return q
}

// ResetSelect empties the projection.
func (q *Query) ResetSelect() *Query {
	q.fields = nil
	return q
}

// From sets the table the query reads from, with an optional alias.
func (q *Query) From(table string, alias ...string) *Query {
	q.from = table
	if len(alias) > 0 && alias[0] != "" {
		q.from = table + " " + alias[0]
	}
	return q
}

// InnerJoin appends an INNER JOIN clause.
func (q *Query) InnerJoin(table, on string) *Query {
	return q.join("INNER", table, on)
}

// LeftJoin appends a LEFT JOIN clause.
func (q *Query) LeftJoin(table, on string) *Query {
	return q.join("LEFT", table, on)
}

// RightJoin appends a RIGHT JOIN clause.
func (q *Query) RightJoin(table, on string) *Query {
	return q.join("RIGHT", table, on)
}

func (q *Query) join(kind, table, on string) *Query {
	if q.from == "" {
		q.AddError(querykit.NewConfigurationError("cannot %s JOIN %q without FROM clause", kind, table))
		return q
	}
	q.joins = append(q.joins, kind+" JOIN "+table+" ON ("+on+")")
	return q
}

// Where appends a predicate. Predicates are joined with AND.
func (q *Query) Where(cond string, params map[string]any) *Query {
	q.where = append(q.where, cond)
	q.setParams(params)
	return q
}

// OrWhere combines cond with the most recently added predicate as
// "(<last> OR <cond>)". Without a previous predicate it behaves like Where.
func (q *Query) OrWhere(cond string, params map[string]any) *Query {
	if len(q.where) == 0 {
		return q.Where(cond, params)
	}
	last := len(q.where) - 1
	q.where[last] = "(" + q.where[last] + " OR " + cond + ")"
	q.setParams(params)
	return q
}

// GroupBy appends GROUP BY fields.
func (q *Query) GroupBy(fields ...string) *Query {
	q.groupBy = append(q.groupBy, fields...)
	return q
}

// ResetGroupBy empties the GROUP BY clause.
func (q *Query) ResetGroupBy() *Query {
	q.groupBy = nil
	return q
}

// Having appends a HAVING predicate. Predicates are joined with AND.
func (q *Query) Having(cond string, params map[string]any) *Query {
	q.having = append(q.having, cond)
	q.setParams(params)
	return q
}

// OrderBy appends an ORDER BY term. It never replaces previous terms.
func (q *Query) OrderBy(field string, dir Direction) *Query {
	if dir == "" {
		dir = Asc
	}
	q.orderBy = append(q.orderBy, field+" "+string(dir))
	return q
}

// ResetOrderBy empties the ORDER BY clause.
func (q *Query) ResetOrderBy() *Query {
	q.orderBy = nil
	return q
}

// Limit sets the maximum number of rows and an optional offset. A zero
// limit means no limit. Negative values are treated as zero.
func (q *Query) Limit(limit int, offset ...int) *Query {
	q.limit = max(limit, 0)
	q.offset = 0
	if len(offset) > 0 {
		q.offset = max(offset[0], 0)
	}
	return q
}

func (q *Query) setParams(params map[string]any) {
	if q.params == nil {
		q.params = make(map[string]any, len(params))
	}
	maps.Copy(q.params, params)
}

// AddError records a configuration error. It is returned by ToSQL and by
// every execution method.
func (q *Query) AddError(err error) *Query {
	q.errs = append(q.errs, err)
	return q
}

// Err returns the errors recorded on the query, or nil.
func (q *Query) Err() error {
	return errors.Join(q.errs...)
}

// Clone returns a deep copy of the query. The database handle is shared.
func (q *Query) Clone() *Query {
	return &Query{
		distinct: q.distinct,
		fields:   slices.Clone(q.fields),
		from:     q.from,
		joins:    slices.Clone(q.joins),
		where:    slices.Clone(q.where),
		groupBy:  slices.Clone(q.groupBy),
		having:   slices.Clone(q.having),
		orderBy:  slices.Clone(q.orderBy),
		limit:    q.limit,
		offset:   q.offset,
		params:   maps.Clone(q.params),
		db:       q.db,
		log:      q.log,
		errs:     slices.Clone(q.errs),
	}
}

// ToSQL renders the statement. LIMIT and OFFSET are not part of the
// rendered text; they are passed to the database on execution.
func (q *Query) ToSQL() (string, error) {
	if err := q.Err(); err != nil {
		return "", err
	}
	if q.from == "" {
		return "", querykit.NewConfigurationError("FROM clause is required")
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(q.fields, ", "))
	b.WriteString("\nFROM ")
	b.WriteString(q.from)
	for _, j := range q.joins {
		b.WriteByte('\n')
		b.WriteString(j)
	}
	writeClause(&b, "WHERE ", q.where, " AND ")
	writeClause(&b, "GROUP BY ", q.groupBy, ", ")
	writeClause(&b, "HAVING ", q.having, " AND ")
	writeClause(&b, "ORDER BY ", q.orderBy, ", ")
	return b.String(), nil
}

func writeClause(b *strings.Builder, keyword string, parts []string, sep string) {
	if len(parts) == 0 {
		return
	}
	b.WriteByte('\n')
	b.WriteString(keyword)
	b.WriteString(strings.Join(parts, sep))
}

// IsDistinct reports whether the DISTINCT flag is set.
func (q *Query) IsDistinct() bool { return q.distinct }

// Selection returns a copy of the projection list.
func (q *Query) Selection() []string { return slices.Clone(q.fields) }

// Source returns the FROM target, "table" or "table alias".
func (q *Query) Source() string { return q.from }

// JoinClauses returns a copy of the rendered JOIN clauses.
func (q *Query) JoinClauses() []string { return slices.Clone(q.joins) }

// WhereClauses returns a copy of the WHERE predicates.
func (q *Query) WhereClauses() []string { return slices.Clone(q.where) }

// GroupByClauses returns a copy of the GROUP BY fields.
func (q *Query) GroupByClauses() []string { return slices.Clone(q.groupBy) }

// HavingClauses returns a copy of the HAVING predicates.
func (q *Query) HavingClauses() []string { return slices.Clone(q.having) }

// OrderByClauses returns a copy of the ORDER BY terms.
func (q *Query) OrderByClauses() []string { return slices.Clone(q.orderBy) }

// LimitOffset returns the current limit and offset.
func (q *Query) LimitOffset() (limit, offset int) { return q.limit, q.offset }

// Params returns a copy of the bound parameters.
func (q *Query) Params() map[string]any { return maps.Clone(q.params) }

// Database returns the database the query is executed with.
func (q *Query) Database() dialect.Database { return q.db }

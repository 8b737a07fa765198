package filter

import (
	"golang.org/x/text/cases"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
)

// Operator aliases.
const (
	OpEq      = "eq"
	OpNeq     = "neq"
	OpGt      = "gt"
	OpGte     = "gte"
	OpLt      = "lt"
	OpLte     = "lte"
	OpIsNull  = "isnull"
	OpNotNull = "notnull"
	OpLike    = "like"
	OpNotLike = "notlike"
	OpIn      = "in"
)

type operator struct {
	alias  string
	symbol string
	make   func(f *Factory, c condition) (Condition, error)
}

func makeCompare(_ *Factory, c condition) (Condition, error) {
	return &compare{condition: c}, nil
}

func makeNull(_ *Factory, c condition) (Condition, error) {
	return &null{condition: c}, nil
}

func makeLike(f *Factory, c condition) (Condition, error) {
	l := &like{condition: c, escape: f.escape}
	if err := l.normalize(); err != nil {
		return nil, err
	}
	return l, nil
}

func makeIn(f *Factory, c condition) (Condition, error) {
	values, err := splitValues(c.field, c.alias, c.value)
	if err != nil {
		return nil, err
	}
	c.value = joinValues(values)
	return &in{condition: c, values: values, builder: f.builder}, nil
}

var operators = []operator{
	{OpEq, "=", makeCompare},
	{OpNeq, "<>", makeCompare},
	{OpGt, ">", makeCompare},
	{OpGte, ">=", makeCompare},
	{OpLt, "<", makeCompare},
	{OpLte, "<=", makeCompare},
	{OpIsNull, "IS NULL", makeNull},
	{OpNotNull, "IS NOT NULL", makeNull},
	{OpLike, "LIKE", makeLike},
	{OpNotLike, "NOT LIKE", makeLike},
	{OpIn, "IN", makeIn},
}

var operatorIndex = func() map[string]*operator {
	m := make(map[string]*operator, len(operators))
	for i := range operators {
		m[operators[i].alias] = &operators[i]
	}
	return m
}()

// Operators returns the supported operator aliases.
func Operators() []string {
	aliases := make([]string, len(operators))
	for i, op := range operators {
		aliases[i] = op.alias
	}
	return aliases
}

// DefaultEscape is the LIKE escape clause used when the database does not
// implement dialect.LikeEscaper.
const DefaultEscape = `'\'`

// Factory creates conditions. The zero value is not usable; see NewFactory.
type Factory struct {
	builder dialect.InClauseBuilder
	escape  string
}

// NewFactory returns a factory rendering IN lists with b. A nil b uses
// dialect.NamedInClause. When b implements dialect.LikeEscaper, its escape
// literal is used for LIKE conditions.
func NewFactory(b dialect.InClauseBuilder) *Factory {
	if b == nil {
		b = dialect.NamedInClause
	}
	f := &Factory{builder: b, escape: DefaultEscape}
	if e, ok := b.(dialect.LikeEscaper); ok {
		f.escape = e.LikeEscape()
	}
	return f
}

var defaultFactory = NewFactory(nil)

// Make returns the condition for the given operator alias using the
// default factory.
func Make(alias, field string, value any) (Condition, error) {
	return defaultFactory.Make(alias, field, value)
}

// Make returns the condition for the given operator alias. Aliases are
// matched case-insensitively.
func (f *Factory) Make(alias, field string, value any) (Condition, error) {
	op, ok := operatorIndex[cases.Fold().String(alias)]
	if !ok {
		return nil, querykit.NewInvalidOperatorError(field, alias)
	}
	return op.make(f, condition{
		field:  field,
		alias:  op.alias,
		symbol: op.symbol,
		key:    field + "__" + op.alias,
		value:  value,
	})
}

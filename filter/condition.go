package filter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
)

// Condition is a single "field operator value" predicate.
type Condition interface {
	// Field returns the column the condition applies to.
	Field() string
	// SetField renames the rendered column. The parameter key keeps the
	// original field name. It has no effect after the first ToSQL.
	SetField(field string)
	// Operator returns the operator alias, e.g. "gte".
	Operator() string
	// Symbol returns the SQL operator, e.g. ">=".
	Symbol() string
	// Key returns the parameter name, field + "__" + alias, fixed when the
	// condition is made.
	Key() string
	// Value returns the condition value.
	Value() any
	// ToSQL renders the predicate. A non-empty prefix qualifies the field
	// with a table alias.
	ToSQL(prefix string) string
	// AppendParams adds the condition parameters to params.
	AppendParams(params map[string]any)
	// Validate checks and coerces the value against a field definition.
	Validate(f Field) error
}

// condition is the base of all operators.
type condition struct {
	field  string
	alias  string
	symbol string
	key    string
	value  any
	sql    string
}

func (c *condition) Field() string { return c.field }

func (c *condition) SetField(field string) {
	if c.sql == "" {
		c.field = field
	}
}

func (c *condition) Operator() string { return c.alias }

func (c *condition) Symbol() string { return c.symbol }

func (c *condition) Key() string { return c.key }

func (c *condition) Value() any { return c.value }

// memoize returns the rendered text, calling render on first use.
func (c *condition) memoize(prefix string, render func() string) string {
	if c.sql == "" {
		c.sql = render()
	}
	if prefix != "" {
		return prefix + "." + c.sql
	}
	return c.sql
}

func (c *condition) Validate(f Field) error {
	v, err := validateValue(c.field, c.alias, c.value, f)
	if err != nil {
		return err
	}
	c.value = v
	return nil
}

// compare renders "field symbol :key".
type compare struct {
	condition
}

func (c *compare) ToSQL(prefix string) string {
	return c.memoize(prefix, func() string {
		return c.field + " " + c.symbol + " :" + c.Key()
	})
}

func (c *compare) AppendParams(params map[string]any) {
	params[c.Key()] = c.value
}

// null renders "field IS [NOT] NULL" and binds nothing.
type null struct {
	condition
}

func (c *null) ToSQL(prefix string) string {
	return c.memoize(prefix, func() string {
		return c.field + " " + c.symbol
	})
}

func (*null) AppendParams(map[string]any) {}

// Validate is a no-op: the value of a null check is ignored.
func (*null) Validate(Field) error { return nil }

// like renders "field [NOT] LIKE :key ESCAPE '\'".
type like struct {
	condition
	escape string
}

func (c *like) ToSQL(prefix string) string {
	return c.memoize(prefix, func() string {
		return c.field + " " + c.symbol + " :" + c.Key() + " ESCAPE " + c.escape
	})
}

func (c *like) AppendParams(params map[string]any) {
	params[c.Key()] = c.value
}

func (c *like) normalize() error {
	s, ok := c.value.(string)
	if !ok {
		return querykit.NewInvalidValueError(c.field, c.alias, fmt.Sprintf("pattern must be a string, got %T", c.value))
	}
	if !strings.Contains(s, "*") {
		return querykit.NewInvalidValueError(c.field, c.alias, "pattern has no wildcard")
	}
	c.value = NormalizeWildcards(s)
	return nil
}

// in renders an IN list through a dialect.InClauseBuilder.
type in struct {
	condition
	values  []any
	builder dialect.InClauseBuilder
	params  map[string]any
}

func (c *in) render() string {
	if c.sql == "" {
		frag, params := c.builder.InClause(c.values, c.Key())
		c.sql = c.field + " " + frag
		c.params = params
	}
	return c.sql
}

func (c *in) ToSQL(prefix string) string {
	return c.memoize(prefix, c.render)
}

func (c *in) AppendParams(params map[string]any) {
	c.render()
	for k, v := range c.params {
		params[k] = v
	}
}

// Values returns the list elements.
func (c *in) Values() []any {
	return append([]any(nil), c.values...)
}

func (c *in) Validate(f Field) error {
	values := make([]any, 0, len(c.values))
	for _, v := range c.values {
		out, err := validateValue(c.field, c.alias, v, f)
		if err != nil {
			return err
		}
		if out == nil {
			continue
		}
		values = append(values, out)
	}
	c.values = values
	c.value = joinValues(values)
	c.sql, c.params = "", nil
	return nil
}

// splitValues turns a comma-separated string or a slice into a list.
func splitValues(field, alias string, v any) ([]any, error) {
	switch v := v.(type) {
	case string:
		parts := strings.Split(v, ",")
		values := make([]any, 0, len(parts))
		for _, p := range parts {
			values = append(values, strings.TrimSpace(p))
		}
		return values, nil
	case []any:
		return append([]any(nil), v...), nil
	case nil:
		return nil, querykit.NewInvalidValueError(field, alias, "list is required")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, querykit.NewInvalidValueError(field, alias, fmt.Sprintf("expect a list or a comma separated string, got %T", v))
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = cast.ToString(v)
	}
	return strings.Join(parts, ",")
}

// NormalizeWildcards escapes the LIKE metacharacters of s with a backslash
// and turns '*' into the '%' wildcard.
func NormalizeWildcards(s string) string {
	return wildcardReplacer.Replace(s)
}

var wildcardReplacer = strings.NewReplacer(
	`\`, `\\`,
	`_`, `\_`,
	`%`, `\%`,
	`*`, `%`,
)

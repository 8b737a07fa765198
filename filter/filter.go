package filter

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
	"github.com/syssam/querykit/query"
)

// Params holds the raw filter parameters keyed by field name. A value is
// either a scalar or list for the default operator, or a map of operator
// alias to value, e.g. {"age": {"gte": 18}, "status": "active"}.
type Params map[string]any

// Filter is a validated set of conditions.
type Filter struct {
	conditions []Condition
	index      map[string]int
}

type options struct {
	registry *Registry
	def      *Definition
	builder  dialect.InClauseBuilder
	log      *slog.Logger
}

// Option configures a Filter.
type Option func(*options)

// WithDefinition validates the parameters against def. Resolved fields are
// cached in reg; a nil reg resolves def on every call.
func WithDefinition(reg *Registry, def *Definition) Option {
	return func(o *options) {
		o.registry = reg
		o.def = def
	}
}

// WithInClause sets the builder of IN lists, usually the dialect.Database
// the filtered query runs on.
func WithInClause(b dialect.InClauseBuilder) Option {
	return func(o *options) {
		o.builder = b
	}
}

// WithLogger sets the logger used to report skipped fields.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// New builds the conditions described by params. The first invalid
// operator or value aborts the construction.
//
// Fields are processed in name order and operators in alias order, so
// conditions sharing a key resolve deterministically: the later one
// replaces the earlier one in place.
func New(params Params, opts ...Option) (*Filter, error) {
	o := &options{log: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	var (
		schema    map[string]Field
		defaultOp = o.def.defaultOperator()
		factory   = NewFactory(o.builder)
	)
	if o.def != nil {
		schema = o.registry.lookup(o.def)
		if o.def.BeforeValidation != nil {
			params = maps.Clone(params)
			o.def.BeforeValidation(params)
		}
	}
	f := &Filter{index: make(map[string]int)}
	for _, field := range slices.Sorted(maps.Keys(params)) {
		ops, ok := operatorValues(params[field])
		if !ok {
			ops = map[string]any{defaultOp: params[field]}
		}
		for _, alias := range slices.Sorted(maps.Keys(ops)) {
			op := alias
			if op == "" {
				op = defaultOp
			}
			if err := f.set(factory, schema, field, op, ops[alias], o.log); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func operatorValues(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case Params:
		return v, true
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return m, true
	}
	return nil, false
}

func (f *Filter) set(factory *Factory, schema map[string]Field, field, op string, value any, log *slog.Logger) error {
	def, declared := schema[field]
	if len(schema) > 0 && !declared {
		log.Debug("filter field not declared, skipping", "field", field, "operator", op)
		return nil
	}
	c, err := factory.Make(op, field, value)
	if err != nil {
		return err
	}
	if declared {
		if !slices.Contains(def.Operators, c.Operator()) {
			return querykit.NewForbiddenOperatorError(field, c.Operator(), def.Operators)
		}
		if err := c.Validate(def); err != nil {
			return err
		}
	}
	f.add(c)
	return nil
}

func (f *Filter) add(c Condition) {
	if i, ok := f.index[c.Key()]; ok {
		f.conditions[i] = c
		return
	}
	f.index[c.Key()] = len(f.conditions)
	f.conditions = append(f.conditions, c)
}

// Len returns the number of conditions.
func (f *Filter) Len() int {
	return len(f.conditions)
}

// HasConditions reports whether the filter has at least one condition.
func (f *Filter) HasConditions() bool {
	return len(f.conditions) > 0
}

// Condition returns the condition with the given key, e.g. "age__gte".
func (f *Filter) Condition(key string) (Condition, bool) {
	i, ok := f.index[key]
	if !ok {
		return nil, false
	}
	return f.conditions[i], true
}

// List returns the conditions in insertion order.
func (f *Filter) List() []Condition {
	return slices.Clone(f.conditions)
}

// Conditions renders the conditions joined with AND. A non-empty prefix
// qualifies every field with a table alias.
func (f *Filter) Conditions(prefix string) string {
	parts := make([]string, len(f.conditions))
	for i, c := range f.conditions {
		parts[i] = c.ToSQL(prefix)
	}
	return strings.Join(parts, " AND ")
}

// Parameters returns the parameters of all conditions.
func (f *Filter) Parameters() map[string]any {
	params := make(map[string]any)
	for _, c := range f.conditions {
		c.AppendParams(params)
	}
	return params
}

// Apply adds the conditions to q as a single WHERE predicate. q is returned
// unchanged when the filter is empty.
func (f *Filter) Apply(q *query.Query, prefix string) *query.Query {
	if !f.HasConditions() {
		return q
	}
	return q.Where(f.Conditions(prefix), f.Parameters())
}

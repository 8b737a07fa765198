package filter

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
	"github.com/syssam/querykit/query"
)

func userDefinition() *Definition {
	return &Definition{
		Name: "users",
		Fields: func() map[string]Field {
			return map[string]Field{
				"age":    {Type: Int, Required: true, Operators: []string{OpGt, OpEq}},
				"status": {Type: AlphaNum, Operators: []string{OpEq, OpIn}, Choices: []any{"todo", "open", "inprogress"}},
				"name":   {Type: Text, Operators: []string{OpLike, OpEq}},
			}
		},
	}
}

func TestFilterEndToEnd(t *testing.T) {
	f, err := New(Params{"age": map[string]any{"gt": 30}}, WithDefinition(NewRegistry(), userDefinition()))
	require.NoError(t, err)
	assert.Equal(t, "age > :age__gt", f.Conditions(""))
	assert.Equal(t, map[string]any{"age__gt": int64(30)}, f.Parameters())
	assert.Equal(t, 1, f.Len())
	assert.True(t, f.HasConditions())
}

func TestFilterForbiddenOperator(t *testing.T) {
	def := &Definition{
		Name: "status_only",
		Fields: func() map[string]Field {
			return map[string]Field{"status": {Type: Text, Operators: []string{OpEq}}}
		},
	}
	f, err := New(Params{"status": map[string]any{"gt": "draft"}}, WithDefinition(NewRegistry(), def))
	require.Error(t, err)
	assert.Nil(t, f)
	assert.True(t, errors.Is(err, querykit.ErrForbiddenOperator))
	assert.True(t, errors.Is(err, querykit.ErrInvalidOperator))
	assert.Equal(t, querykit.KindForbiddenOperator, querykit.KindOf(err))

	var qerr *querykit.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, []string{OpEq}, qerr.Context.Allowed)
	assert.Equal(t, 400, qerr.StatusCode())
}

func TestFilterInList(t *testing.T) {
	f, err := New(
		Params{"status": map[string]any{"in": []any{"todo", "open", "inprogress"}}},
		WithDefinition(NewRegistry(), userDefinition()),
	)
	require.NoError(t, err)
	assert.Contains(t, f.Conditions(""), "IN")
	assert.Equal(t, map[string]any{
		"status__in1": "todo",
		"status__in2": "open",
		"status__in3": "inprogress",
	}, f.Parameters())

	c, ok := f.Condition("status__in")
	require.True(t, ok)
	assert.Equal(t, "todo,open,inprogress", c.Value())
}

func TestFilterErrors(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name   string
		params Params
		kind   querykit.Kind
	}{
		{name: "invalid_operator", params: Params{"status": map[string]any{"invalid": "abc"}}, kind: querykit.KindInvalidOperator},
		{name: "validation", params: Params{"age": map[string]any{"gt": "old"}}, kind: querykit.KindValidation},
		{name: "choice", params: Params{"status": "closed"}, kind: querykit.KindInvalidChoice},
		{name: "missing_required", params: Params{"age": map[string]any{"eq": nil}}, kind: querykit.KindMissingRequired},
		{name: "like_without_wildcard", params: Params{"name": map[string]any{"like": "john"}}, kind: querykit.KindInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.params, WithDefinition(reg, userDefinition()))
			require.Error(t, err)
			assert.Nil(t, f)
			assert.Equal(t, tt.kind, querykit.KindOf(err))
			assert.True(t, querykit.IsClientError(err))
		})
	}
}

func TestFilterOrdering(t *testing.T) {
	f, err := New(Params{
		"b": 1,
		"a": map[string]any{"lt": 5, "gt": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "a > :a__gt AND a < :a__lt AND b = :b__eq", f.Conditions(""))
	assert.Equal(t, map[string]any{"a__gt": 1, "a__lt": 5, "b__eq": 1}, f.Parameters())

	keys := make([]string, 0, f.Len())
	for _, c := range f.List() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []string{"a__gt", "a__lt", "b__eq"}, keys)
}

func TestFilterSameKeyKeepsPosition(t *testing.T) {
	f, err := New(Params{"a": map[string]any{"": 1, "EQ": 2}, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, "a = :a__eq AND b = :b__eq", f.Conditions(""))
	assert.Equal(t, map[string]any{"a__eq": 2, "b__eq": 3}, f.Parameters())
}

func TestFilterSkipsUndeclared(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f, err := New(
		Params{"age": "40", "password": map[string]any{"like": "*"}},
		WithDefinition(NewRegistry(), userDefinition()),
		WithLogger(logger),
	)
	require.NoError(t, err)
	assert.Equal(t, "age = :age__eq", f.Conditions(""))
	assert.Contains(t, buf.String(), "field=password")
}

func TestFilterWithoutSchema(t *testing.T) {
	f, err := New(Params{"anything": "x", "other": map[string]string{"isnull": ""}})
	require.NoError(t, err)
	assert.Equal(t, "anything = :anything__eq AND other IS NULL", f.Conditions(""))
	assert.Equal(t, map[string]any{"anything__eq": "x"}, f.Parameters())

	f, err = New(nil)
	require.NoError(t, err)
	assert.False(t, f.HasConditions())
	assert.Empty(t, f.Conditions(""))
	assert.Empty(t, f.Parameters())
}

func TestFilterDefaultOperator(t *testing.T) {
	def := &Definition{
		Name:            "search",
		DefaultOperator: OpLike,
		Fields: func() map[string]Field {
			return map[string]Field{"name": {Type: Text}}
		},
	}
	f, err := New(Params{"name": "jo*"}, WithDefinition(NewRegistry(), def))
	require.NoError(t, err)
	assert.Equal(t, `name LIKE :name__like ESCAPE '\'`, f.Conditions(""))
	assert.Equal(t, map[string]any{"name__like": "jo%"}, f.Parameters())
}

func TestFilterBeforeValidation(t *testing.T) {
	def := userDefinition()
	def.Name = "users_rewritten"
	def.BeforeValidation = func(p Params) {
		if v, ok := p["min_age"]; ok {
			p["age"] = map[string]any{"gt": v}
			delete(p, "min_age")
		}
	}
	params := Params{"min_age": "18"}
	f, err := New(params, WithDefinition(NewRegistry(), def))
	require.NoError(t, err)
	assert.Equal(t, "age > :age__gt", f.Conditions(""))
	assert.Equal(t, Params{"min_age": "18"}, params)
}

func TestFilterApply(t *testing.T) {
	f, err := New(Params{"age": map[string]any{"gt": "30"}, "status": "open"}, WithDefinition(NewRegistry(), userDefinition()))
	require.NoError(t, err)

	q := f.Apply(query.New(nil).From("users", "u").Where("u.deleted = 0", nil), "u")
	sql, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM users u\nWHERE u.deleted = 0 AND u.age > :age__gt AND u.status = :status__eq", sql)
	assert.Equal(t, map[string]any{"age__gt": int64(30), "status__eq": "open"}, q.Params())

	empty, err := New(Params{})
	require.NoError(t, err)
	q = query.New(nil).From("users")
	assert.Same(t, q, empty.Apply(q, ""))
	assert.Empty(t, q.WhereClauses())
}

func TestFilterWithInClause(t *testing.T) {
	builder := dialect.InClauseFunc(func(values []any, prefix string) (string, map[string]any) {
		return "= ANY(:" + prefix + ")", map[string]any{prefix: values}
	})
	f, err := New(Params{"id": map[string]any{"in": "1,2"}}, WithInClause(builder))
	require.NoError(t, err)
	assert.Equal(t, "id = ANY(:id__in)", f.Conditions(""))
	assert.Equal(t, map[string]any{"id__in": []any{"1", "2"}}, f.Parameters())
}

func TestFilterDecimalIntegers(t *testing.T) {
	reg := NewRegistry()
	for in, want := range map[string]int64{"010": 10, "08": 8, "30": 30} {
		f, err := New(Params{"age": map[string]any{"gt": in}}, WithDefinition(reg, userDefinition()))
		require.NoError(t, err, in)
		assert.Equal(t, map[string]any{"age__gt": want}, f.Parameters(), in)
	}

	_, err := New(Params{"age": map[string]any{"gt": "0x10"}}, WithDefinition(reg, userDefinition()))
	assert.Equal(t, querykit.KindValidation, querykit.KindOf(err))
}

func TestFilterOptionalNilKeepsNil(t *testing.T) {
	def := &Definition{
		Name: "defaults",
		Fields: func() map[string]Field {
			return map[string]Field{
				"status": {Type: Text, Default: "open"},
				"age":    {Type: Int, Required: true, Default: 18},
			}
		},
	}
	f, err := New(Params{"status": nil, "age": nil}, WithDefinition(NewRegistry(), def))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status__eq": nil, "age__eq": int64(18)}, f.Parameters())
}

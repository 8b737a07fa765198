package filter

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{
			name:  "plain",
			query: "status=active",
			want:  Params{"status": "active"},
		},
		{
			name:  "plain_last_wins",
			query: "status=a&status=b",
			want:  Params{"status": "b"},
		},
		{
			name:  "operator",
			query: "age[gte]=18&age[lt]=65",
			want:  Params{"age": map[string]any{"gte": "18", "lt": "65"}},
		},
		{
			name:  "list_brackets",
			query: "status[in][]=todo&status[in][]=open",
			want:  Params{"status": map[string]any{"in": []any{"todo", "open"}}},
		},
		{
			name:  "list_repeated",
			query: "status[in]=todo&status[in]=open",
			want:  Params{"status": map[string]any{"in": []any{"todo", "open"}}},
		},
		{
			name:  "single_bracket_list",
			query: "status[in][]=todo",
			want:  Params{"status": map[string]any{"in": []any{"todo"}}},
		},
		{
			name:  "default_list",
			query: "id[]=1&id[]=2",
			want:  Params{"id": []any{"1", "2"}},
		},
		{
			name:  "plain_and_operator",
			query: "age=30&age[gt]=18",
			want:  Params{"age": map[string]any{"": "30", "gt": "18"}},
		},
		{
			name:  "plain_and_default_list",
			query: "status=x&status[]=y&status[]=z",
			want:  Params{"status": []any{"x", "y", "z"}},
		},
		{
			name:  "plain_default_list_and_operator",
			query: "status[]=y&status[neq]=z&status=x",
			want:  Params{"status": map[string]any{"": []any{"x", "y"}, "neq": "z"}},
		},
		{
			name:  "malformed",
			query: "a[b=1&[x]=2&c[d][e]=3",
			want:  Params{"a[b": "1", "[x]": "2", "c[d][e]": "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			for range 20 {
				assert.Equal(t, tt.want, ParseValues(values))
			}
		})
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/users?age[gt]=30&status[in]=todo,open&ignored=1", nil)
	f, err := FromRequest(r, WithDefinition(NewRegistry(), userDefinition()))
	require.NoError(t, err)
	assert.Equal(t, "age > :age__gt AND status IN (:status__in1,:status__in2)", f.Conditions(""))
	assert.Equal(t, map[string]any{
		"age__gt":     int64(30),
		"status__in1": "todo",
		"status__in2": "open",
	}, f.Parameters())

	r = httptest.NewRequest("GET", "/users?status[gt]=open", nil)
	_, err = FromRequest(r, WithDefinition(NewRegistry(), userDefinition()))
	require.Error(t, err)
}

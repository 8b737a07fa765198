package pagination_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/querykit/dialect"
	sqldialect "github.com/syssam/querykit/dialect/sql"
	"github.com/syssam/querykit/filter"
	"github.com/syssam/querykit/pagination"
	"github.com/syssam/querykit/query"
)

func openItems(t *testing.T, n int) *sqldialect.Driver {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT NOT NULL, kind TEXT)")
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		kind := "even"
		if i%2 == 1 {
			kind = "odd"
		}
		_, err = db.Exec("INSERT INTO items (id, label, kind) VALUES (?, ?, ?)", i, fmt.Sprintf("Item %d", i), kind)
		require.NoError(t, err)
	}
	return sqldialect.OpenDB(dialect.SQLite, db)
}

func TestCursorRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, tt := range []struct{ n, limit int }{{23, 5}, {20, 5}, {3, 10}, {0, 4}, {7, 1}} {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.limit), func(t *testing.T) {
			drv := openItems(t, tt.n)
			c := pagination.NewCursor(query.New(drv).From("items", "i"), "i.id").SetLimit(tt.limit)

			var (
				seen  []int64
				pages int
			)
			for {
				pages++
				require.LessOrEqual(t, pages, tt.n+1, "pagination does not terminate")
				for row, err := range c.Rows(ctx) {
					require.NoError(t, err)
					seen = append(seen, row["id"].(int64))
				}
				next, err := c.NextCursor()
				require.NoError(t, err)
				if next == nil {
					assert.False(t, c.HasNext())
					break
				}
				assert.True(t, c.HasNext())
				c.SetCursor(next)
			}

			want := make([]int64, tt.n)
			for i := range want {
				want[i] = int64(i + 1)
			}
			if tt.n == 0 {
				want = nil
			}
			assert.Equal(t, want, seen)
		})
	}
}

func TestCursorTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	drv := openItems(t, 12)
	c := pagination.NewCursor(query.New(drv).From("items"), "id").SetLimit(5)

	var labels []string
	token := ""
	for {
		cursor, err := pagination.DecodeCursor(token)
		require.NoError(t, err)
		c.SetCursor(cursor)
		for row, err := range c.Rows(ctx) {
			require.NoError(t, err)
			labels = append(labels, row["label"].(string))
		}
		next, err := c.NextCursor()
		require.NoError(t, err)
		if token, err = pagination.EncodeCursor(next); err != nil || token == "" {
			require.NoError(t, err)
			break
		}
	}
	require.Len(t, labels, 12)
	assert.Equal(t, "Item 12", labels[11])
}

func TestPageWithFilter(t *testing.T) {
	ctx := context.Background()
	drv := openItems(t, 25)
	def := &filter.Definition{
		Name: "items",
		Fields: func() map[string]filter.Field {
			return map[string]filter.Field{
				"kind":  {Type: filter.AlphaNum, Choices: []any{"odd", "even"}},
				"id":    {Type: filter.Int, Operators: []string{filter.OpGt, filter.OpLte, filter.OpIn}},
				"label": {Type: filter.Text, Operators: []string{filter.OpLike}},
			}
		},
	}
	f, err := filter.New(filter.Params{
		"kind": "odd",
		"id":   map[string]any{"lte": "20"},
	}, filter.WithDefinition(filter.NewRegistry(), def), filter.WithInClause(drv))
	require.NoError(t, err)

	q := f.Apply(query.New(drv).From("items", "i").OrderBy("i.id", query.Asc), "i")
	p := pagination.NewPage(q).SetLimit(4).SetPage(2)

	var ids []int64
	for row, err := range p.Rows(ctx) {
		require.NoError(t, err)
		ids = append(ids, row["id"].(int64))
	}
	assert.Equal(t, []int64{9, 11, 13, 15}, ids)
	total, err := p.Total()
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	pages, err := p.TotalPages()
	require.NoError(t, err)
	assert.Equal(t, int64(3), pages)

	f, err = filter.New(filter.Params{
		"label": map[string]any{"like": "Item 1*"},
		"id":    map[string]any{"in": "1,10,12,20"},
	}, filter.WithDefinition(filter.NewRegistry(), def), filter.WithInClause(drv))
	require.NoError(t, err)
	n, err := f.Apply(query.New(drv).From("items"), "").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestLikeEscapesMetacharacters(t *testing.T) {
	ctx := context.Background()
	drv := openItems(t, 0)
	_, err := drv.DB().Exec("INSERT INTO items (id, label) VALUES (1, '100% done'), (2, '100 done'), (3, 'a_b'), (4, 'axb')")
	require.NoError(t, err)

	for _, tt := range []struct {
		pattern string
		want    int64
	}{
		{pattern: "100%*", want: 1},
		{pattern: "100*", want: 2},
		{pattern: "a_*", want: 1},
		{pattern: "a*", want: 2},
	} {
		f, err := filter.New(filter.Params{"label": map[string]any{"like": tt.pattern}}, filter.WithInClause(drv))
		require.NoError(t, err)
		n, err := f.Apply(query.New(drv).From("items"), "").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n, tt.pattern)
	}
}

package pagination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querykit"
	"github.com/syssam/querykit/dialect"
	"github.com/syssam/querykit/internal/dbtest"
	"github.com/syssam/querykit/query"
)

func TestCursorFirstPage(t *testing.T) {
	db := dbtest.New(items(15)...)
	q := query.New(db).From("items", "i").OrderBy("label", query.Desc)
	c := NewCursor(q, "i.id").SetLimit(5)

	rows := collect(t, c.Rows(context.Background()))
	require.Len(t, rows, 5)
	assert.Equal(t, "Item 1", rows[0]["label"])
	assert.Equal(t, "Item 5", rows[4]["label"])

	next, err := c.NextCursor()
	require.NoError(t, err)
	assert.Equal(t, int64(5), next)
	lookahead, err := c.LookaheadCursor()
	require.NoError(t, err)
	assert.Equal(t, int64(6), lookahead)
	assert.True(t, c.HasNext())

	calls := db.CallsOf("query")
	require.Len(t, calls, 1)
	assert.Equal(t, "SELECT *\nFROM items i\nORDER BY i.id ASC", calls[0].SQL)
	assert.Equal(t, 6, calls[0].Limit)
	assert.Zero(t, calls[0].Offset)
	assert.Equal(t, []string{"label DESC"}, q.OrderByClauses(), "caller query must not be modified")
}

func TestCursorWithCursor(t *testing.T) {
	db := dbtest.New(items(3)...)
	c := NewCursor(query.New(db).From("items"), "id").SetLimit(5).SetCursor(10)
	assert.Equal(t, 10, c.Cursor())
	assert.Equal(t, "id", c.CursorField())

	rows := collect(t, c.Rows(context.Background()))
	assert.Len(t, rows, 3)

	calls := db.CallsOf("query")
	require.Len(t, calls, 1)
	assert.Equal(t, "SELECT *\nFROM items\nWHERE id > :pagination_cursor\nORDER BY id ASC", calls[0].SQL)
	assert.Equal(t, map[string]any{CursorParam: 10}, calls[0].Params)

	next, err := c.NextCursor()
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.False(t, c.HasNext())
}

func TestCursorNotConsumed(t *testing.T) {
	db := dbtest.New(items(10)...)
	c := NewCursor(query.New(db).From("items"), "id").SetLimit(2)

	_, err := c.NextCursor()
	assert.ErrorIs(t, err, ErrNotConsumed)
	_, err = c.LookaheadCursor()
	assert.ErrorIs(t, err, ErrNotConsumed)

	for _, err := range c.Rows(context.Background()) {
		require.NoError(t, err)
		break
	}
	_, err = c.NextCursor()
	assert.ErrorIs(t, err, ErrNotConsumed)
	assert.False(t, c.HasNext())
	assert.Zero(t, db.Open())
}

func TestCursorLimitRequired(t *testing.T) {
	db := dbtest.New(items(3)...)
	c := NewCursor(query.New(db).From("items"), "id")

	var errs []error
	for row, err := range c.Rows(context.Background()) {
		assert.Nil(t, row)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.True(t, querykit.IsConfigurationError(errs[0]))
	assert.Empty(t, db.Calls())
}

func TestCursorSetField(t *testing.T) {
	db := dbtest.New(
		dialect.Row{"id": int64(1), "code": "a"},
		dialect.Row{"id": int64(2), "code": "b"},
	)
	c := NewCursor(query.New(db).From("items").Limit(1), "id").SetCursorField("code")
	assert.Equal(t, 1, c.Limit())

	rows := collect(t, c.Rows(context.Background()))
	require.Len(t, rows, 1)
	next, err := c.NextCursor()
	require.NoError(t, err)
	assert.Equal(t, "a", next)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"

	"github.com/syssam/querykit/dialect"
	sqldialect "github.com/syssam/querykit/dialect/sql"
	"github.com/syssam/querykit/filter"
	"github.com/syssam/querykit/pagination"
	"github.com/syssam/querykit/query"
)

type rowsFlags struct {
	tableFlags
	page        int
	cursorField string
	cursor      string
	limit       int
}

// pageMeta is printed after the rows of a page paginated result.
type pageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// cursorMeta is printed after the rows of a cursor paginated result.
type cursorMeta struct {
	Limit      int    `json:"limit"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasNext    bool   `json:"has_next"`
}

func newRowsCmd(opts *options) *cobra.Command {
	var rf rowsFlags
	cmd := &cobra.Command{
		Use:   "rows <filter> <parameters>",
		Short: "Run a filtered query and print one page of rows",
		Long: `Run a filtered query and print its rows as JSON lines, followed by a
line of pagination metadata.

Pages are selected by number with --page, or by cursor with --cursor-field
and the next_cursor token of the previous page.

Examples:
  querykit rows users "age[gt]=30" --table users --page 2 --limit 50
  querykit rows users "status=open" --table users --cursor-field id --cursor gqQ
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			drv, err := e.open()
			if err != nil {
				return err
			}
			defer drv.Close()
			db := sqldialect.NewStatsDatabase(drv,
				sqldialect.WithSlowThreshold(e.cfg.Stats.SlowThreshold),
				sqldialect.WithSlowQueryLog(e.log),
			)
			// The driver renders IN lists and LIKE escapes for its dialect.
			f, err := e.filter(args[0], args[1], filter.WithInClause(drv))
			if err != nil {
				return err
			}
			q := f.Apply(rf.query(query.New(db).UseLogger(e.log)), rf.alias)
			limit := e.cfg.ClampLimit(rf.limit)
			out := cmd.OutOrStdout()
			if rf.cursorField != "" {
				err = runCursor(cmd.Context(), out, q, rf, limit)
			} else {
				err = runPage(cmd.Context(), out, q, rf, limit)
			}
			e.log.Debug("query stats", "stats", db.QueryStats().Stats().String())
			return err
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVar(&rf.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().StringVar(&rf.cursorField, "cursor-field", "", "Unique column used for cursor pagination")
	cmd.Flags().StringVar(&rf.cursor, "cursor", "", "Cursor token returned by the previous page")
	cmd.Flags().IntVar(&rf.limit, "limit", 0, "Page size (default from configuration)")
	cmd.MarkFlagsMutuallyExclusive("page", "cursor-field")
	return cmd
}

func runPage(ctx context.Context, w io.Writer, q *query.Query, rf rowsFlags, limit int) error {
	p := pagination.NewPage(q).SetLimit(limit).SetPage(rf.page)
	enc := json.NewEncoder(w)
	if err := writeRows(enc, p.Rows(ctx)); err != nil {
		return err
	}
	total, err := p.Total()
	if err != nil {
		return err
	}
	pages, err := p.TotalPages()
	if err != nil {
		return err
	}
	return enc.Encode(pageMeta{Page: p.PageNumber(), Limit: p.Limit(), Total: total, TotalPages: pages})
}

func runCursor(ctx context.Context, w io.Writer, q *query.Query, rf rowsFlags, limit int) error {
	after, err := pagination.DecodeCursor(rf.cursor)
	if err != nil {
		return err
	}
	c := pagination.NewCursor(q, rf.cursorField).SetLimit(limit).SetCursor(after)
	enc := json.NewEncoder(w)
	if err := writeRows(enc, c.Rows(ctx)); err != nil {
		return err
	}
	next, err := c.NextCursor()
	if err != nil {
		return err
	}
	token, err := pagination.EncodeCursor(next)
	if err != nil {
		return err
	}
	return enc.Encode(cursorMeta{Limit: c.Limit(), NextCursor: token, HasNext: c.HasNext()})
}

func writeRows(enc *json.Encoder, rows iter.Seq2[dialect.Row, error]) error {
	for row, err := range rows {
		if err != nil {
			return err
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	return nil
}

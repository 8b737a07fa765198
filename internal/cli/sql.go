package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	sqldialect "github.com/syssam/querykit/dialect/sql"
	"github.com/syssam/querykit/query"
)

// tableFlags select the queried table.
type tableFlags struct {
	table string
	alias string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.table, "table", "", "Table to select from")
	cmd.Flags().StringVar(&f.alias, "alias", "", "Table alias used to qualify filtered fields")
	_ = cmd.MarkFlagRequired("table")
}

func (f *tableFlags) query(q *query.Query) *query.Query {
	if f.alias != "" {
		return q.From(f.table, f.alias)
	}
	return q.From(f.table)
}

func newSQLCmd(opts *options) *cobra.Command {
	var tf tableFlags
	cmd := &cobra.Command{
		Use:   "sql <filter> <parameters>",
		Short: "Print the SQL of a filtered query",
		Long: `Print the SELECT statement and parameters produced by a filter.

The statement is printed twice: with named placeholders, then bound to the
positional placeholders of the configured dialect.

Examples:
  querykit sql users "age[gt]=30&status=draft" --table users
  querykit sql users "status[in]=todo,open" --table users --alias u --dialect postgres
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			f, err := e.filter(args[0], args[1])
			if err != nil {
				return err
			}
			q := f.Apply(tf.query(query.New(nil)), tf.alias)
			stmt, err := q.ToSQL()
			if err != nil {
				return err
			}
			bound, bindArgs, err := sqldialect.Bind(e.cfg.DialectName(), stmt, q.Params())
			if err != nil {
				return err
			}
			params, err := json.Marshal(q.Params())
			if err != nil {
				return fmt.Errorf("encode parameters: %w", err)
			}
			positional, err := json.Marshal(bindArgs)
			if err != nil {
				return fmt.Errorf("encode arguments: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n-- params: %s\n\n", stmt, params)
			fmt.Fprintf(out, "%s\n-- args: %s\n", bound, positional)
			return nil
		},
	}
	tf.register(cmd)
	return cmd
}

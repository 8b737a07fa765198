// Package cli implements the querykit command.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/syssam/querykit/config"
	sqldialect "github.com/syssam/querykit/dialect/sql"
	"github.com/syssam/querykit/filter"
)

// options are the persistent flags shared by all commands.
type options struct {
	configPath string
	dialect    string
	dsn        string
	logLevel   string
}

// NewRootCmd returns the querykit command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "querykit",
		Short: "Render and run filtered, paginated SQL queries",
		Long: `Render and run SELECT statements filtered with LHS bracket parameters.

Filters are declared in the configuration file. Parameters are given as a
query string, for example "age[gt]=30&status[in]=todo,open".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file")
	flags.StringVar(&opts.dialect, "dialect", "", "Database dialect: sqlite, mysql or postgres")
	flags.StringVar(&opts.dsn, "dsn", "", "Database connection string")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newSQLCmd(opts))
	cmd.AddCommand(newRowsCmd(opts))
	cmd.AddCommand(newSchemaCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// env is the state resolved from the flags for one command run.
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *filter.Registry
}

func (o *options) load(cmd *cobra.Command) (*env, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	} else if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := o.override(cfg); err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		log:      config.NewLogger(cfg.Log, cmd.ErrOrStderr()),
		registry: filter.NewRegistry(),
	}, nil
}

// override applies the flags set on the command line over cfg and
// validates the result.
func (o *options) override(cfg *config.Config) error {
	if o.dialect != "" {
		cfg.Dialect = o.dialect
	}
	if o.dsn != "" {
		cfg.DSN = o.dsn
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (e *env) definition(name string) (*filter.Definition, error) {
	def, ok := e.cfg.Definitions()[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", name)
	}
	return def, nil
}

// filter parses the query string and validates it against the named
// definition.
func (e *env) filter(name, rawQuery string, opts ...filter.Option) (*filter.Filter, error) {
	def, err := e.definition(name)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}
	opts = append(opts, filter.WithDefinition(e.registry, def), filter.WithLogger(e.log))
	return filter.New(filter.ParseValues(values), opts...)
}

// open connects to the configured database.
func (e *env) open() (*sqldialect.Driver, error) {
	db, err := sql.Open(e.cfg.DriverName(), e.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.cfg.Dialect, err)
	}
	return sqldialect.OpenDB(e.cfg.DialectName(), db), nil
}

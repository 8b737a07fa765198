package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/querykit/config"
)

const redacted = "redacted"

func newConfigCmd(opts *options) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after defaults, the file, QUERYKIT_* environment
variables and flags are applied. The DSN is redacted.

With --watch the file is watched and the configuration is printed again,
as a new YAML document, every time a valid version is saved. Invalid
versions are logged and skipped.

Examples:
  querykit config --config querykit.yaml
  querykit config --config querykit.yaml --watch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := writeConfig(out, e.cfg); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			if opts.configPath == "" {
				return errors.New("--watch requires --config")
			}
			err = config.Watch(cmd.Context(), opts.configPath, e.log, func(cfg *config.Config) {
				if err := opts.override(cfg); err != nil {
					e.log.Warn("config reload rejected", "path", opts.configPath, "error", err)
					return
				}
				if _, err := io.WriteString(out, "---\n"); err != nil {
					return
				}
				if err := writeConfig(out, cfg); err != nil {
					e.log.Warn("config print failed", "error", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Print the configuration again whenever the file changes")
	return cmd
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	c := *cfg
	if c.DSN != "" {
		c.DSN = redacted
	}
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Package cli wires configuration, logging and storage into the cobra
// command tree. The bare command launches the TUI; subcommands run one
// TaskStore operation for scripting.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/checkoff/internal/update"
)

type rootOptions struct {
	dbPath    string
	exportDir string
	logLevel  string
}

// config resolves defaults, then CHECKOFF_* env vars, then flags that were
// set explicitly.
func (o *rootOptions) config(cmd *cobra.Command) update.RuntimeConfig {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("export-dir") {
		cfg.ExportDir = o.exportDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	defaults := update.DefaultRuntimeConfig()

	root := &cobra.Command{
		Use:   "checkoff",
		Short: "Checkoff - keep your tasks moving forward",
		Long: `Checkoff is a personal checklist. Tasks have a title, an optional due date
and are either to do or done. Overdue work is surfaced first.

Run without a subcommand to open the interactive checklist.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dbPath, "db", defaults.DBPath, "SQLite database file (env CHECKOFF_DB)")
	pf.StringVar(&opts.exportDir, "export-dir", defaults.ExportDir, "directory for backup files (env CHECKOFF_EXPORT_DIR)")
	pf.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "debug, info, warn or error (env CHECKOFF_LOG_LEVEL)")

	root.AddCommand(
		newAddCmd(opts),
		newDoneCmd(opts),
		newClearCmd(opts),
		newListCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newThemeCmd(opts),
	)
	return root
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

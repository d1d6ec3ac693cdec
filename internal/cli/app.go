package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/checkoff/internal/storage"
	"github.com/sandeepkv93/checkoff/internal/store"
	"github.com/sandeepkv93/checkoff/internal/update"
)

// app is one opened checklist: config, logger, database and the loaded
// stores on top of it.
type app struct {
	cfg   update.RuntimeConfig
	log   *slog.Logger
	kv    *storage.SQLiteKV
	tasks *store.TaskStore
	theme *store.ThemePreference

	closeLog func() error
}

func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg := opts.config(cmd)
	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	kv, err := storage.OpenSQLite(cfg.DBPath,
		storage.WithLockPath(cfg.LockPath()),
		storage.WithLockTimeout(cfg.LockTimeout),
		storage.WithLogger(log),
	)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}

	a := &app{cfg: cfg, log: log, kv: kv, closeLog: closeLog}
	if err := a.load(cmd.Context()); err != nil {
		_ = a.Close()
		return nil, err
	}
	log.Debug("checklist opened", "db", cfg.DBPath, "tasks", len(a.tasks.Tasks()))
	return a, nil
}

func (a *app) load(ctx context.Context) error {
	var err error
	a.tasks, err = store.New(a.kv, store.WithLogger(a.log))
	if err != nil {
		return err
	}
	if err := a.tasks.Load(ctx); err != nil {
		return err
	}
	a.theme, err = store.NewThemePreference(a.kv, store.WithLogger(a.log))
	if err != nil {
		return err
	}
	return a.theme.Init(ctx)
}

func (a *app) Close() error {
	return errors.Join(a.kv.Close(), a.closeLog())
}

// newLogger writes text logs to cfg.LogFile, or to fallback when no file is
// configured. The TUI owns stdout, so logs never go there.
func newLogger(cfg update.RuntimeConfig, fallback io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	w := fallback
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

package cli

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/checkoff/internal/scheduler"
	"github.com/sandeepkv93/checkoff/internal/update"
)

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	// Logs would tear the alternate screen, so they go to a file or nowhere.
	cfg := opts.config(cmd)
	if cfg.LogFile == "" {
		cmd.SetErr(io.Discard)
	}
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	modelOpts := []update.Option{update.WithConfig(a.cfg), update.WithLogger(a.log)}
	if a.cfg.Alarms {
		engine := scheduler.NewEngine(a.cfg.SchedulerBuffer)
		engine.Start()
		defer engine.Stop()
		modelOpts = append(modelOpts, update.WithScheduler(engine))
	}

	program := tea.NewProgram(
		update.NewModel(a.tasks, a.theme, modelOpts...),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := program.Run(); err != nil {
		a.log.Error("tui exited", slog.Any("err", err))
		return fmt.Errorf("checkoff failed: %w", err)
	}
	return nil
}

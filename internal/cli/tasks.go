package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/checkoff/internal/exchange"
	"github.com/sandeepkv93/checkoff/internal/model"
)

// withApp opens the checklist for the duration of one subcommand.
func withApp(opts *rootOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			due = strings.TrimSpace(due)
			if due != "" {
				if _, err := model.ParseDueDate(due); err != nil {
					return fmt.Errorf("--due must be YYYY-MM-DD: %w", err)
				}
			}
			task, added, err := a.tasks.Add(cmd.Context(), strings.Join(args, " "), due)
			if err != nil {
				return err
			}
			if !added {
				return fmt.Errorf("title must not be blank")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d: %s\n", task.ID, task.Title)
			return nil
		}),
	}
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Check off a task",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			changed, err := a.tasks.Checkoff(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "task %d is already done or missing\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked off %d\n", id)
			return nil
		}),
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed tasks",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			removed, err := a.tasks.ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d completed task(s)\n", removed)
			return nil
		}),
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show tasks grouped as overdue, remaining and completed",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			now := time.Now()
			switch strings.ToLower(format) {
			case "text":
				return writeText(cmd.OutOrStdout(), a.tasks.Classify(now))
			case "json":
				return writeJSON(cmd.OutOrStdout(), a.tasks.Classify(now))
			case "toon":
				out, err := exchange.EncodeTOON(a.tasks.Tasks())
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			default:
				return fmt.Errorf("unsupported format %q (text, json, toon)", format)
			}
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "text, json or toon")
	return cmd
}

func writeText(w io.Writer, c model.Classification) error {
	counts := c.Counts()
	fmt.Fprintf(w, "overdue %d | to do %d | done %d | total %d\n", counts.Overdue, counts.Todo, counts.Done, counts.Total)
	section := func(title string, tasks []model.Task) {
		fmt.Fprintf(w, "\n%s:\n", title)
		for _, t := range tasks {
			box := "[ ]"
			if t.IsDone() {
				box = "[x]"
			}
			line := fmt.Sprintf("  %s %d  %s", box, t.ID, t.Title)
			if t.HasDueDate() {
				line += "  due " + t.DueDate
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(c.Overdue) > 0 {
		section("Overdue", c.Overdue)
	}
	section("Remaining", c.Upcoming)
	if len(c.Upcoming) == 0 && len(c.Overdue) == 0 {
		fmt.Fprintln(w, "  Nice! You're all caught up.")
	}
	section("Completed", c.Done)
	return nil
}

type listJSON struct {
	Counts   model.Counts `json:"counts"`
	Overdue  []model.Task `json:"overdue"`
	Upcoming []model.Task `json:"upcoming"`
	Done     []model.Task `json:"done"`
}

func writeJSON(w io.Writer, c model.Classification) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listJSON{Counts: c.Counts(), Overdue: c.Overdue, Upcoming: c.Upcoming, Done: c.Done})
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file of all tasks",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			f, err := exchange.ParseFormat(format)
			if err != nil {
				return err
			}
			if stdout {
				data, err := exchange.Encode(f, a.tasks.Tasks())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			path, err := exchange.WriteBackup(a.cfg.ExportDir, time.Now(), f, a.tasks.Tasks())
			if err != nil {
				return err
			}
			a.log.Info("backup exported", "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or toon")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print instead of writing a file")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Merge tasks from a JSON backup; imported entries win on id clashes",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			raw, err := exchange.ReadImportFile(args[0])
			if err != nil {
				return err
			}
			n, err := a.tasks.ImportJSON(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d task(s), %d total\n", n, len(a.tasks.Tasks()))
			return nil
		}),
	}
}

func newThemeCmd(opts *rootOptions) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Toggle between the light and dark theme",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			dark := a.theme.IsDark()
			if !show {
				var err error
				if dark, err = a.theme.Toggle(cmd.Context()); err != nil {
					return err
				}
			}
			name := "light"
			if dark {
				name = "dark"
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the current theme without changing it")
	return cmd
}

package update

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/checkoff/internal/exchange"
	"github.com/sandeepkv93/checkoff/internal/model"
)

var errInvalidDueDate = errors.New("due date must be YYYY-MM-DD")

// The actions below are shared by key bindings and palette commands. Each
// returns the status text for a successful run.

func (m *Model) addTask(title, dueDate string) (string, error) {
	dueDate = strings.TrimSpace(dueDate)
	if dueDate != "" {
		if _, err := model.ParseDueDate(dueDate); err != nil {
			return "", errInvalidDueDate
		}
	}
	task, added, err := m.Tasks.Add(context.Background(), title, dueDate)
	if !added {
		return "nothing to add", nil
	}
	m.afterMutation()
	if err != nil {
		return "", err
	}
	m.selectTask(task.ID)
	return fmt.Sprintf("added: %s", task.Title), nil
}

func (m *Model) checkoffTask(id int64) (string, error) {
	changed, err := m.Tasks.Checkoff(context.Background(), id)
	if !changed {
		return fmt.Sprintf("task %d is already done or missing", id), nil
	}
	m.afterMutation()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("checked off task %d", id), nil
}

func (m *Model) checkoffSelected() (string, error) {
	rows := m.rows()
	if len(rows) == 0 {
		return "no tasks yet", nil
	}
	row := rows[m.Cursor]
	if row.task.IsDone() {
		return fmt.Sprintf("%q is already done", row.task.Title), nil
	}
	return m.checkoffTask(row.task.ID)
}

func (m *Model) clearCompleted() (string, error) {
	removed, err := m.Tasks.ClearCompleted(context.Background())
	if removed == 0 {
		return "no completed tasks to clear", nil
	}
	m.afterMutation()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cleared %d completed task(s)", removed), nil
}

func (m *Model) exportBackup(format string) (string, error) {
	f, err := exchange.ParseFormat(format)
	if err != nil {
		return "", err
	}
	path, err := exchange.WriteBackup(m.Config.ExportDir, m.now(), f, m.Tasks.Tasks())
	if err != nil {
		m.log.Error("export failed", "dir", m.Config.ExportDir, "err", err)
		return "", err
	}
	m.log.Info("backup exported", "path", path, "format", f)
	return fmt.Sprintf("exported to %s", path), nil
}

func (m *Model) importBackup(path string) (string, error) {
	raw, err := exchange.ReadImportFile(path)
	if err != nil {
		return "", err
	}
	n, err := m.Tasks.ImportJSON(context.Background(), raw)
	if n > 0 || err == nil {
		m.afterMutation()
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("imported %d task(s) from %s", n, path), nil
}

func (m *Model) toggleTheme() (string, error) {
	if m.Theme == nil {
		return "", errors.New("theme preference unavailable")
	}
	dark, err := m.Theme.Toggle(context.Background())
	if err != nil {
		return "", err
	}
	if dark {
		return "dark theme", nil
	}
	return "light theme", nil
}

func (m *Model) afterMutation() {
	m.syncSelection()
	m.rescheduleAlarms()
}

func (m *Model) setResult(text string, err error) {
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: text}
}

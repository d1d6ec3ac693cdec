package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/checkoff/internal/model"
	"github.com/sandeepkv93/checkoff/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.Scheduler == nil {
		return nil
	}
	m.rescheduleAlarms()
	return waitForAlarmCmd(m.Scheduler.C())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Form.Active {
			return m.handleFormKey(typed), nil
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}
		return m.handleListKey(typed)
	case tea.WindowSizeMsg:
		m.helpModel.Width = typed.Width
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case AlarmDueMsg:
		m.applyAlarm(typed.Alarm)
		if m.Scheduler != nil {
			return m, waitForAlarmCmd(m.Scheduler.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.Keys.New):
		return m.openForm(), nil
	case key.Matches(msg, m.Keys.Palette):
		return m.openPalette(), nil
	case key.Matches(msg, m.Keys.Checkoff):
		m.setResult(m.checkoffSelected())
	case key.Matches(msg, m.Keys.Clear):
		m.setResult(m.clearCompleted())
	case key.Matches(msg, m.Keys.Export):
		m.setResult(m.exportBackup("json"))
	case key.Matches(msg, m.Keys.Theme):
		m.setResult(m.toggleTheme())
	case key.Matches(msg, m.Keys.Help):
		m.HelpVisible = !m.HelpVisible
	}
	return m, nil
}

func (m Model) View() string {
	th := views.NewTheme(m.Theme != nil && m.Theme.IsDark())

	var counts model.Counts
	if m.Tasks != nil {
		counts = m.Tasks.Counts(m.now())
	}

	overlay := ""
	switch {
	case m.Form.Active:
		overlay = views.RenderForm(th, views.FormData{
			TitleView: m.titleInput.View(),
			DateView:  m.dateInput.View(),
			Field:     int(m.Form.Field),
			ErrorText: m.Form.Err,
		})
	case m.Palette.Active:
		overlay = views.RenderCommandPalette(true, m.Palette.Input)
	case m.HelpVisible:
		overlay = m.renderHelpIfVisible(th)
	}

	notification := ""
	if len(m.AlarmLog) > 0 {
		last := m.AlarmLog[len(m.AlarmLog)-1]
		notification = fmt.Sprintf("last alarm: %s @ %s", last.Kind, last.At.Format("2006-01-02 15:04"))
	}

	return views.RenderApp(views.AppData{
		Theme:         th,
		Header:        "Checkoff",
		Counts:        views.RenderCounts(th, views.CountsData{Overdue: counts.Overdue, Todo: counts.Todo, Done: counts.Done, Total: counts.Total}),
		Body:          views.RenderTaskList(th, m.taskListData()),
		Overlay:       overlay,
		StatusLine:    m.Status.Text,
		StatusIsError: m.Status.IsError,
		Notification:  notification,
		Footer:        m.helpModel.ShortHelpView(m.Keys.ShortHelp()),
	})
}

func (m Model) taskListData() views.TaskListData {
	var data views.TaskListData
	for i, r := range m.rows() {
		rd := views.TaskRowData{
			ID:       r.task.ID,
			Title:    r.task.Title,
			DueDate:  r.task.DueDate,
			Done:     r.task.IsDone(),
			Overdue:  r.bucket == model.BucketOverdue,
			Selected: i == m.Cursor,
		}
		switch r.bucket {
		case model.BucketOverdue:
			data.Overdue = append(data.Overdue, rd)
		case model.BucketDone:
			data.Completed = append(data.Completed, rd)
		default:
			data.Remaining = append(data.Remaining, rd)
		}
	}
	return data
}

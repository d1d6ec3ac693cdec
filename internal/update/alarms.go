package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/checkoff/internal/model"
	"github.com/sandeepkv93/checkoff/internal/scheduler"
)

const alarmLogLimit = 20

// rescheduleAlarms replaces the pending alarms with a plan for the current
// collection.
func (m *Model) rescheduleAlarms() {
	if m.Scheduler == nil || m.Tasks == nil {
		return
	}
	if err := m.Scheduler.Reset(scheduler.Plan(m.Tasks.Tasks(), m.now())); err != nil {
		m.log.Warn("reschedule alarms", "err", err)
	}
}

// applyAlarm records a fired alarm. An overdue alarm for a task that is
// gone or already done was planned before that change and is ignored.
func (m *Model) applyAlarm(a scheduler.Alarm) {
	if a.Kind == scheduler.KindOverdue {
		task, ok := m.findTask(a.TaskID)
		if !ok || task.IsDone() {
			m.log.Debug("stale alarm ignored", "key", a.Key)
			return
		}
	}
	m.AlarmLog = append(m.AlarmLog, a)
	if len(m.AlarmLog) > alarmLogLimit {
		m.AlarmLog = m.AlarmLog[len(m.AlarmLog)-alarmLogLimit:]
	}
	switch a.Kind {
	case scheduler.KindOverdue:
		task, _ := m.findTask(a.TaskID)
		m.Status = StatusBar{Text: fmt.Sprintf("now overdue: %s", task.Title), IsError: true}
	case scheduler.KindRollover:
		m.Status = StatusBar{Text: fmt.Sprintf("new day: %s", a.At.Format("Mon Jan 2"))}
		m.rescheduleAlarms()
	}
	m.syncSelection()
	m.log.Debug("alarm fired", "key", a.Key, "kind", string(a.Kind))
}

func (m *Model) findTask(id int64) (model.Task, bool) {
	for _, t := range m.Tasks.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func waitForAlarmCmd(ch <-chan scheduler.Alarm) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return AlarmDueMsg{Alarm: a}
	}
}

package update

import (
	"github.com/sandeepkv93/checkoff/internal/model"
)

type row struct {
	task   model.Task
	bucket model.Bucket
}

// rows lists tasks in screen order: overdue, remaining, completed.
func (m Model) rows() []row {
	if m.Tasks == nil {
		return nil
	}
	c := m.Tasks.Classify(m.now())
	out := make([]row, 0, len(c.Overdue)+len(c.Upcoming)+len(c.Done))
	for _, t := range c.Overdue {
		out = append(out, row{task: t, bucket: model.BucketOverdue})
	}
	for _, t := range c.Upcoming {
		out = append(out, row{task: t, bucket: model.BucketUpcoming})
	}
	for _, t := range c.Done {
		out = append(out, row{task: t, bucket: model.BucketDone})
	}
	return out
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.syncSelection()
}

// syncSelection clamps the cursor to the visible rows and records the id
// under it.
func (m *Model) syncSelection() {
	rows := m.rows()
	if len(rows) == 0 {
		m.Cursor = 0
		m.SelectedTaskID = 0
		return
	}
	m.Cursor = clamp(m.Cursor, 0, len(rows)-1)
	m.SelectedTaskID = rows[m.Cursor].task.ID
}

func (m *Model) selectTask(id int64) {
	for i, r := range m.rows() {
		if r.task.ID == id {
			m.Cursor = i
			m.SelectedTaskID = id
			return
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package scheduler

import (
	"strconv"
	"time"

	"github.com/sandeepkv93/checkoff/internal/model"
)

// Plan lists the alarms that matter after now: one per todo task that will
// become overdue later, plus the next local midnight. Tasks that are already
// overdue, done, undated or carry an unreadable date get none.
func Plan(tasks []model.Task, now time.Time) []Alarm {
	out := make([]Alarm, 0, len(tasks)+1)
	for _, t := range tasks {
		if t.IsDone() {
			continue
		}
		at, ok := model.OverdueAt(t.DueDate, now.Location())
		if !ok || !at.After(now) {
			continue
		}
		out = append(out, Alarm{
			Key:    "overdue:" + strconv.FormatInt(t.ID, 10),
			TaskID: t.ID,
			Kind:   KindOverdue,
			At:     at,
		})
	}
	midnight := NextMidnight(now)
	out = append(out, Alarm{
		Key:  "rollover:" + midnight.Format(model.DueDateLayout),
		Kind: KindRollover,
		At:   midnight,
	})
	return out
}

func NextMidnight(now time.Time) time.Time {
	return model.StartOfDay(now).AddDate(0, 0, 1)
}

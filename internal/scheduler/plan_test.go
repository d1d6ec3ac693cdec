package scheduler

import (
	"testing"
	"time"

	"github.com/sandeepkv93/checkoff/internal/model"
)

func TestPlan(t *testing.T) {
	loc := time.FixedZone("test", -7*3600)
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, loc)
	tasks := []model.Task{
		{ID: 1, Title: "due today", DueDate: "2025-06-15", Status: model.StatusTodo},
		{ID: 2, Title: "already late", DueDate: "2025-06-10", Status: model.StatusTodo},
		{ID: 3, Title: "done", DueDate: "2025-06-20", Status: model.StatusDone},
		{ID: 4, Title: "undated", Status: model.StatusTodo},
		{ID: 5, Title: "garbage", DueDate: "soon", Status: model.StatusTodo},
		{ID: 6, Title: "next week", DueDate: "2025-06-22", Status: model.StatusTodo},
	}

	alarms := Plan(tasks, now)
	if len(alarms) != 3 {
		t.Fatalf("expected 3 alarms, got %#v", alarms)
	}

	midnight := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
	if alarms[0].TaskID != 1 || alarms[0].Kind != KindOverdue || !alarms[0].At.Equal(midnight) {
		t.Fatalf("unexpected first alarm: %+v", alarms[0])
	}
	if alarms[1].TaskID != 6 || !alarms[1].At.Equal(time.Date(2025, 6, 23, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected second alarm: %+v", alarms[1])
	}
	last := alarms[2]
	if last.Kind != KindRollover || !last.At.Equal(midnight) || last.Key != "rollover:2025-06-16" {
		t.Fatalf("unexpected rollover alarm: %+v", last)
	}
}

func TestPlanEmptyCollectionStillRollsOver(t *testing.T) {
	alarms := Plan(nil, time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC))
	if len(alarms) != 1 || alarms[0].Kind != KindRollover {
		t.Fatalf("expected a single rollover alarm, got %#v", alarms)
	}
	if !alarms[0].At.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected rollover time %v", alarms[0].At)
	}
}

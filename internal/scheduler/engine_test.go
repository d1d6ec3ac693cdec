package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(Alarm{Key: "later", At: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Alarm{Key: "sooner", At: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitAlarm(t, engine.C(), time.Second)
	second := waitAlarm(t, engine.C(), time.Second)
	if first.Key != "sooner" || second.Key != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.Key, second.Key)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Alarm{Key: fmt.Sprintf("alarm-%d", i), At: at}); err != nil {
			t.Fatalf("schedule alarm: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped alarms > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Alarm{Key: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	if err := engine.Reset([]Alarm{{Key: "bad"}}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime from reset, got %v", err)
	}
}

func TestResetReplacesPendingAlarms(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	_ = engine.Schedule(Alarm{Key: "stale", At: now.Add(40 * time.Millisecond)})
	_ = engine.Schedule(Alarm{Key: "stale-2", At: now.Add(time.Hour)})
	if err := engine.Reset([]Alarm{{Key: "fresh", At: now.Add(60 * time.Millisecond)}}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending alarm, got %d", engine.Pending())
	}

	got := waitAlarm(t, engine.C(), time.Second)
	if got.Key != "fresh" {
		t.Fatalf("expected fresh alarm, got %s", got.Key)
	}
}

func TestScheduleSameKeyMovesAlarm(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	_ = engine.Schedule(Alarm{Key: "overdue:7", TaskID: 7, At: now.Add(time.Hour)})
	if err := engine.Schedule(Alarm{Key: "overdue:7", TaskID: 7, At: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected the key to be pending once, got %d", engine.Pending())
	}

	got := waitAlarm(t, engine.C(), time.Second)
	if got.Key != "overdue:7" {
		t.Fatalf("unexpected alarm %+v", got)
	}
	select {
	case extra := <-engine.C():
		t.Fatalf("moved alarm fired twice: %+v", extra)
	case <-time.After(60 * time.Millisecond):
	}
	if engine.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", engine.Pending())
	}
}

func TestResetLaterDuplicateKeyWins(t *testing.T) {
	engine := NewEngine(4)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	err := engine.Reset([]Alarm{
		{Key: "rollover:2025-06-16", Kind: KindRollover, At: now.Add(time.Hour)},
		{Key: "rollover:2025-06-16", Kind: KindRollover, At: now.Add(10 * time.Millisecond)},
	})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending alarm, got %d", engine.Pending())
	}
	if got := waitAlarm(t, engine.C(), time.Second); got.Kind != KindRollover {
		t.Fatalf("unexpected alarm %+v", got)
	}
}

func TestScheduleAfterStop(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	engine.Stop()
	if err := engine.Schedule(Alarm{Key: "late", At: time.Now()}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := engine.Reset(nil); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped from reset, got %v", err)
	}
	if _, ok := <-engine.C(); ok {
		t.Fatal("expected closed channel after stop")
	}
}

func waitAlarm(t *testing.T, ch <-chan Alarm, timeout time.Duration) Alarm {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for alarm")
		return Alarm{}
	}
}

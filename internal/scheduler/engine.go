package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

type AlarmKind string

const (
	// KindOverdue fires when a todo task crosses into the overdue bucket.
	KindOverdue AlarmKind = "overdue"
	// KindRollover fires at local midnight so day-relative views refresh.
	KindRollover AlarmKind = "rollover"
)

// Alarm is one pending wake-up. Key identifies it: scheduling a second
// alarm with the same key moves the first rather than adding another.
type Alarm struct {
	Key    string
	TaskID int64
	Kind   AlarmKind
	At     time.Time
}

type queueItem struct {
	alarm Alarm
	plan  uint64
	index int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].alarm.At.Equal(pq[j].alarm.At) {
		return pq[i].alarm.Key < pq[j].alarm.Key
	}
	return pq[i].alarm.At.Before(pq[j].alarm.At)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Engine emits alarms on C() once their time has come. Delivery never
// blocks the loop: when the buffer is full the alarm is counted as dropped.
// Alarms belong to the plan that was current when they were scheduled; once
// Reset installs a new plan, alarms of the old one are no longer delivered,
// even if they were already due.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	byKey   map[string]*queueItem
	plan    uint64
	out     chan Alarm
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
	stale   uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		byKey:  make(map[string]*queueItem),
		out:    make(chan Alarm, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Alarm {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule adds a to the current plan, replacing any pending alarm with the
// same key.
func (e *Engine) Schedule(a Alarm) error {
	if a.At.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.putLocked(a)
	e.signalWakeup()
	return nil
}

// Reset starts a new plan holding exactly alarms. Later duplicates of a key
// win. Nothing is changed when any alarm has no trigger time.
func (e *Engine) Reset(alarms []Alarm) error {
	for _, a := range alarms {
		if a.At.IsZero() {
			return ErrInvalidTriggerTime
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.plan++
	e.queue = make(priorityQueue, 0, len(alarms))
	e.byKey = make(map[string]*queueItem, len(alarms))
	for _, a := range alarms {
		e.putLocked(a)
	}
	e.signalWakeup()
	return nil
}

func (e *Engine) putLocked(a Alarm) {
	if item, ok := e.byKey[a.Key]; ok {
		item.alarm = a
		heap.Fix(&e.queue, item.index)
		return
	}
	item := &queueItem{alarm: a, plan: e.plan}
	heap.Push(&e.queue, item)
	e.byKey[a.Key] = item
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// Superseded counts due alarms withheld because a Reset replaced their plan
// between firing and delivery.
func (e *Engine) Superseded() uint64 {
	return atomic.LoadUint64(&e.stale)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		timer = resetTimer(timer, max(time.Until(next.At), 0))

		select {
		case <-timer.C:
			for _, item := range e.popDue(time.Now()) {
				e.deliver(item)
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) deliver(item *queueItem) {
	e.mu.Lock()
	current := item.plan == e.plan
	e.mu.Unlock()
	if !current {
		atomic.AddUint64(&e.stale, 1)
		return
	}
	select {
	case e.out <- item.alarm:
	default:
		atomic.AddUint64(&e.dropped, 1)
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Alarm, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Alarm{}, false
	}
	return e.queue[0].alarm, true
}

func (e *Engine) popDue(now time.Time) []*queueItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*queueItem
	for len(e.queue) > 0 && !e.queue[0].alarm.At.After(now) {
		item := heap.Pop(&e.queue).(*queueItem)
		delete(e.byKey, item.alarm.Key)
		out = append(out, item)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

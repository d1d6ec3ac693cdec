package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const DueDateLayout = "2006-01-02"

type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketUpcoming Bucket = "upcoming"
	BucketDone     Bucket = "done"
)

// ParseDueDate reads a YYYY-MM-DD due date as a calendar day in the local
// time zone. A full RFC 3339 timestamp is accepted and reduced to its local day.
func ParseDueDate(raw string) (time.Time, error) {
	return parseDueDateIn(raw, time.Local)
}

func parseDueDateIn(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if d, err := time.ParseInLocation(DueDateLayout, s, loc); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return StartOfDay(ts.In(loc)), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, raw)
}

// StartOfDay strips the time of day from t in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// BucketAt classifies t against the calendar day of ref, in ref's location.
// An unparsable due date is never before today, so such a todo is upcoming.
func (t Task) BucketAt(ref time.Time) Bucket {
	if t.IsDone() {
		return BucketDone
	}
	if !t.HasDueDate() {
		return BucketUpcoming
	}
	due, err := parseDueDateIn(t.DueDate, ref.Location())
	if err != nil {
		return BucketUpcoming
	}
	if due.Before(StartOfDay(ref)) {
		return BucketOverdue
	}
	return BucketUpcoming
}

// OverdueAt returns the instant a todo task with this due date becomes
// overdue: the start of the following day in loc.
func OverdueAt(dueDate string, loc *time.Location) (time.Time, bool) {
	if strings.TrimSpace(dueDate) == "" {
		return time.Time{}, false
	}
	due, err := parseDueDateIn(dueDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return due.AddDate(0, 0, 1), true
}

type Classification struct {
	Overdue  []Task
	Upcoming []Task
	Done     []Task
}

type Counts struct {
	Overdue int `json:"overdue"`
	Todo    int `json:"todo"`
	Done    int `json:"done"`
	Total   int `json:"total"`
}

// Classify partitions tasks into overdue, upcoming and done, keeping the
// collection order inside every bucket.
func Classify(tasks []Task, ref time.Time) Classification {
	out := Classification{
		Overdue:  make([]Task, 0),
		Upcoming: make([]Task, 0),
		Done:     make([]Task, 0),
	}
	for _, t := range tasks {
		switch t.BucketAt(ref) {
		case BucketOverdue:
			out.Overdue = append(out.Overdue, t)
		case BucketDone:
			out.Done = append(out.Done, t)
		default:
			out.Upcoming = append(out.Upcoming, t)
		}
	}
	return out
}

func (c Classification) Counts() Counts {
	return Counts{
		Overdue: len(c.Overdue),
		Todo:    len(c.Upcoming),
		Done:    len(c.Done),
		Total:   len(c.Overdue) + len(c.Upcoming) + len(c.Done),
	}
}

func (c Classification) Clone() Classification {
	return Classification{
		Overdue:  slices.Clone(c.Overdue),
		Upcoming: slices.Clone(c.Upcoming),
		Done:     slices.Clone(c.Done),
	}
}

// MergeByID appends incoming after existing and collapses duplicate ids.
// The last entry for an id wins and takes the slot where that id first
// appeared.
func MergeByID(existing, incoming []Task) []Task {
	index := make(map[int64]int, len(existing)+len(incoming))
	out := make([]Task, 0, len(existing)+len(incoming))
	for _, t := range slices.Concat(existing, incoming) {
		if i, ok := index[t.ID]; ok {
			out[i] = t
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

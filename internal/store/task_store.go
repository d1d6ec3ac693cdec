// Package store owns the task collection and the theme preference and keeps
// both persisted in a storage.KV after every mutation.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/checkoff/internal/model"
	"github.com/sandeepkv93/checkoff/internal/storage"
)

const (
	TasksKey = "checkoff_savedTasks"
	ThemeKey = "checkoff_prefersLight"
)

var (
	ErrNotArray        = errors.New("store: import payload is not an array")
	ErrMalformedImport = errors.New("store: import payload is not valid JSON")
	ErrNilKV           = errors.New("store: nil kv")
)

type options struct {
	log *slog.Logger
	now func() time.Time
}

type Option func(*options)

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock replaces the wall clock used for id assignment.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type classCache struct {
	day    time.Time
	result model.Classification
}

// TaskStore is the single owner of the task collection. All methods are safe
// for concurrent use; each runs as one step over the in-memory collection.
type TaskStore struct {
	mu     sync.Mutex
	kv     storage.KV
	log    *slog.Logger
	now    func() time.Time
	tasks  []model.Task
	lastID int64
	cache  *classCache
}

func New(kv storage.KV, opts ...Option) (*TaskStore, error) {
	if kv == nil {
		return nil, ErrNilKV
	}
	o := buildOptions(opts)
	return &TaskStore{
		kv:    kv,
		log:   o.log,
		now:   o.now,
		tasks: make([]model.Task, 0),
	}, nil
}

// Load replaces the in-memory collection with the persisted one. A missing
// slot yields an empty collection; so does a malformed one, which is logged
// and otherwise ignored. Only a failing read is returned.
func (s *TaskStore) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, TasksKey)
	if err != nil {
		return fmt.Errorf("store: read tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.tasks = make([]model.Task, 0)
	if !ok {
		s.lastID = 0
		return nil
	}
	tasks, err := decodeSaved([]byte(raw))
	if err != nil {
		s.log.Error("failed to parse saved tasks", "key", TasksKey, "err", err)
		s.lastID = 0
		return nil
	}
	s.tasks = tasks
	s.lastID = maxID(tasks)
	s.log.Debug("tasks loaded", "count", len(tasks))
	return nil
}

func decodeSaved(raw []byte) ([]model.Task, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("saved tasks are not a JSON array")
	}
	var tasks []model.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = make([]model.Task, 0)
	}
	return tasks, nil
}

// Add appends a new todo task. A blank title is not an error: nothing is
// created, nothing is written, and added is false.
func (s *TaskStore) Add(ctx context.Context, title, dueDate string) (task model.Task, added bool, err error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return model.Task{}, false, nil
	}

	_, err = s.mutate(ctx, func(tasks []model.Task) ([]model.Task, bool) {
		task = model.Task{
			ID:      s.nextID(),
			Title:   trimmed,
			DueDate: dueDate,
			Status:  model.StatusTodo,
		}
		added = true
		return append(tasks, task), true
	})
	if added {
		s.log.Info("task added", "id", task.ID, "due", task.DueDate)
	}
	return task, added, err
}

// nextID hands out wall-clock milliseconds, bumped past the largest id seen
// so two adds in the same millisecond never collide.
func (s *TaskStore) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Checkoff marks the task with id done. Unknown ids and tasks that are
// already done are ignored; changed reports whether anything was written.
func (s *TaskStore) Checkoff(ctx context.Context, id int64) (changed bool, err error) {
	changed, err = s.mutate(ctx, func(tasks []model.Task) ([]model.Task, bool) {
		hit := false
		for i := range tasks {
			if tasks[i].ID != id || tasks[i].IsDone() {
				continue
			}
			tasks[i].Status = model.StatusDone
			hit = true
		}
		return tasks, hit
	})
	if !changed {
		s.log.Debug("checkoff ignored", "id", id)
		return false, err
	}
	s.log.Info("task checked off", "id", id)
	return true, err
}

// ClearCompleted drops every done task and returns how many were removed.
func (s *TaskStore) ClearCompleted(ctx context.Context) (int, error) {
	removed := 0
	_, err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, bool) {
		before := len(tasks)
		tasks = slices.DeleteFunc(tasks, model.Task.IsDone)
		removed = before - len(tasks)
		return tasks, removed > 0
	})
	if removed > 0 {
		s.log.Info("completed tasks cleared", "removed", removed)
	}
	return removed, err
}

// ImportJSON parses raw export text and merges it via Import. Unparsable
// text leaves the collection untouched.
func (s *TaskStore) ImportJSON(ctx context.Context, raw []byte) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		s.log.Warn("rejecting import", "err", err)
		return 0, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		s.log.Warn("rejecting import with trailing data")
		return 0, fmt.Errorf("%w: trailing data after array", ErrMalformedImport)
	}
	return s.Import(ctx, payload)
}

// Import merges candidates into the collection by id: they are appended
// after the current tasks and, per id, the last entry wins while keeping the
// position where that id first appeared. A payload that is not an array is
// rejected with ErrNotArray and changes nothing. Records that cannot be read
// as a task at all (not an object, or no integer id) are skipped; everything
// else is trusted as-is. It returns the number of records merged.
func (s *TaskStore) Import(ctx context.Context, candidates any) (int, error) {
	records, ok := asRecords(candidates)
	if !ok {
		s.log.Warn("rejecting import", "err", ErrNotArray, "type", fmt.Sprintf("%T", candidates))
		return 0, ErrNotArray
	}

	incoming := make([]model.Task, 0, len(records))
	for i, rec := range records {
		task, err := model.DecodeCandidate(rec)
		if err != nil {
			s.log.Warn("skipping import record", "index", i, "err", err)
			continue
		}
		if verr := task.Validate(); verr != nil {
			s.log.Warn("importing record as-is despite invalid shape", "index", i, "id", task.ID, "err", verr)
		}
		incoming = append(incoming, task)
	}

	total := 0
	_, err := s.mutate(ctx, func(tasks []model.Task) ([]model.Task, bool) {
		merged := model.MergeByID(tasks, incoming)
		s.lastID = max(s.lastID, maxID(merged))
		total = len(merged)
		return merged, true
	})
	s.log.Info("tasks imported", "records", len(records), "merged", len(incoming), "total", total)
	return len(incoming), err
}

// asRecords accepts any slice or array; everything else is not an import
// payload.
func asRecords(v any) ([]any, bool) {
	if typed, ok := v.([]any); ok {
		return typed, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Export encodes the current collection in the persisted JSON shape.
func (s *TaskStore) Export() ([]byte, error) {
	return model.MarshalTasks(s.Tasks())
}

// Tasks returns a copy of the collection in insertion order.
func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Classify partitions the collection against the calendar day of ref. The
// partition is cached per day until the next mutation.
func (s *TaskStore) Classify(ref time.Time) model.Classification {
	day := model.StartOfDay(ref)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil && s.cache.day.Equal(day) && s.cache.day.Location() == day.Location() {
		return s.cache.result.Clone()
	}
	result := model.Classify(s.tasks, ref)
	s.cache = &classCache{day: day, result: result}
	return result.Clone()
}

func (s *TaskStore) Counts(ref time.Time) model.Counts {
	return s.Classify(ref).Counts()
}

// mutate runs fn inside one KV update. The persisted slot, when present,
// is the base fn works on, so changes written by another store sharing the
// same KV are never overwritten; an absent slot falls back to the in-memory
// collection. fn reports whether it changed anything, and unchanged
// collections are not written. The result stays in memory even when the
// write fails.
func (s *TaskStore) mutate(ctx context.Context, fn func(tasks []model.Task) ([]model.Task, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	err := s.kv.Update(ctx, TasksKey, func(raw string, ok bool) (string, bool, error) {
		base := s.tasks
		if ok {
			fresh, err := decodeSaved([]byte(raw))
			if err != nil {
				s.log.Error("failed to parse saved tasks", "key", TasksKey, "err", err)
				fresh = make([]model.Task, 0)
			}
			base = fresh
		}
		s.lastID = max(s.lastID, maxID(base))
		next, ch := fn(slices.Clone(base))
		s.cache = nil
		if !ch {
			s.tasks = base
			return "", false, nil
		}
		s.tasks = next
		changed = true
		encoded, err := model.MarshalTasks(next)
		if err != nil {
			return "", false, fmt.Errorf("store: encode tasks: %w", err)
		}
		return string(encoded), true, nil
	})
	if err != nil {
		s.log.Error("failed to persist tasks", "err", err)
		return changed, fmt.Errorf("store: persist tasks: %w", err)
	}
	return changed, nil
}

func maxID(tasks []model.Task) int64 {
	var out int64
	for _, t := range tasks {
		out = max(out, t.ID)
	}
	return out
}

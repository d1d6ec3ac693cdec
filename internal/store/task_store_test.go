package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/checkoff/internal/model"
	"github.com/sandeepkv93/checkoff/internal/storage"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newTestStore(t *testing.T, opts ...Option) (*TaskStore, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	s, err := New(kv, opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, kv
}

func seed(t *testing.T, kv *storage.MemoryKV, tasks []model.Task) {
	t.Helper()
	raw, err := model.MarshalTasks(tasks)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := kv.Set(context.Background(), TasksKey, string(raw)); err != nil {
		t.Fatalf("seed kv: %v", err)
	}
}

func persisted(t *testing.T, kv *storage.MemoryKV) []model.Task {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), TasksKey)
	if err != nil || !ok {
		t.Fatalf("expected persisted tasks, ok=%v err=%v", ok, err)
	}
	var out []model.Task
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("persisted tasks are not valid JSON: %v", err)
	}
	return out
}

func equalTasks(a, b []model.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsNilKV(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilKV) {
		t.Fatalf("expected ErrNilKV, got %v", err)
	}
}

func TestLoadMissingSlotIsEmpty(t *testing.T) {
	s, kv := newTestStore(t)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Tasks()) != 0 {
		t.Fatalf("expected empty collection, got %#v", s.Tasks())
	}
	if kv.Writes() != 0 {
		t.Fatalf("load must not write, got %d writes", kv.Writes())
	}
}

func TestLoadMalformedFallsBackToEmpty(t *testing.T) {
	cases := map[string]string{
		"not json":           "{{{",
		"object":             `{"id": 1}`,
		"null":               "null",
		"bad record":         `[{"id": "one", "title": "A"}]`,
		"partially readable": `[{"id": 1, "title": "A", "dueDate": "", "status": "todo"}, 7]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s, kv := newTestStore(t)
			if err := kv.Set(context.Background(), TasksKey, raw); err != nil {
				t.Fatalf("seed: %v", err)
			}
			if err := s.Load(context.Background()); err != nil {
				t.Fatalf("malformed data must not fail load: %v", err)
			}
			if got := s.Tasks(); len(got) != 0 {
				t.Fatalf("expected empty fallback, got %#v", got)
			}
			if kv.Writes() != 1 {
				t.Fatalf("load must not write, got %d writes", kv.Writes())
			}
		})
	}
}

func TestLoadReadErrorIsReturned(t *testing.T) {
	s, kv := newTestStore(t)
	kv.FailGet = errors.New("io error")
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoadRestoresCollection(t *testing.T) {
	s, kv := newTestStore(t)
	want := []model.Task{
		{ID: 1, Title: "A", DueDate: "2025-06-01", Status: model.StatusTodo},
		{ID: 2, Title: "B", DueDate: "", Status: model.StatusDone},
	}
	seed(t, kv, want)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !equalTasks(s.Tasks(), want) {
		t.Fatalf("unexpected tasks: %#v", s.Tasks())
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	s, kv := newTestStore(t)
	task, added, err := s.Add(context.Background(), "   ", "2025-01-01")
	if err != nil || added {
		t.Fatalf("expected silent no-op, added=%v err=%v", added, err)
	}
	if task != (model.Task{}) {
		t.Fatalf("expected zero task, got %+v", task)
	}
	if len(s.Tasks()) != 0 || kv.Writes() != 0 {
		t.Fatalf("blank add must not change or persist, tasks=%d writes=%d", len(s.Tasks()), kv.Writes())
	}
}

func TestAddAppendsTrimmedTodo(t *testing.T) {
	s, kv := newTestStore(t, WithClock(fixedClock(1750000000000)))
	task, added, err := s.Add(context.Background(), "  Buy milk  ", "")
	if err != nil || !added {
		t.Fatalf("add: added=%v err=%v", added, err)
	}
	want := model.Task{ID: 1750000000000, Title: "Buy milk", DueDate: "", Status: model.StatusTodo}
	if task != want {
		t.Fatalf("unexpected task: %+v", task)
	}
	if got := s.Tasks(); len(got) != 1 || got[0] != want {
		t.Fatalf("unexpected collection: %#v", got)
	}
	if got := persisted(t, kv); !equalTasks(got, []model.Task{want}) {
		t.Fatalf("unexpected persisted collection: %#v", got)
	}
}

func TestAddKeepsDueDateUntrimmedAndOrder(t *testing.T) {
	s, _ := newTestStore(t, WithClock(fixedClock(100)))
	ctx := context.Background()
	_, _, _ = s.Add(ctx, "first", "2025-06-15")
	_, _, _ = s.Add(ctx, "second", " 2025-06-16")
	got := s.Tasks()
	if len(got) != 2 || got[0].Title != "first" || got[1].Title != "second" {
		t.Fatalf("expected insertion order, got %#v", got)
	}
	if got[1].DueDate != " 2025-06-16" {
		t.Fatalf("due date must be stored as given, got %q", got[1].DueDate)
	}
}

func TestAddAssignsUniqueIDsWithinOneMillisecond(t *testing.T) {
	s, _ := newTestStore(t, WithClock(fixedClock(5000)))
	ctx := context.Background()
	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		task, _, err := s.Add(ctx, "same instant", "")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestAddIDsStayAboveLoadedIDs(t *testing.T) {
	s, kv := newTestStore(t, WithClock(fixedClock(10)))
	seed(t, kv, []model.Task{{ID: 9000, Title: "future", Status: model.StatusTodo}})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	task, _, _ := s.Add(context.Background(), "new", "")
	if task.ID != 9001 {
		t.Fatalf("expected id bumped past loaded ids, got %d", task.ID)
	}
}

func TestAddPersistFailureIsReturned(t *testing.T) {
	s, kv := newTestStore(t)
	kv.FailSet = errors.New("disk full")
	_, added, err := s.Add(context.Background(), "x", "")
	if !added || err == nil {
		t.Fatalf("expected added with persist error, added=%v err=%v", added, err)
	}
	if len(s.Tasks()) != 1 {
		t.Fatal("in-memory mutation is kept when the write fails")
	}
}

func TestCheckoffIsIdempotent(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, []model.Task{
		{ID: 1, Title: "A", DueDate: "2025-06-01", Status: model.StatusTodo},
		{ID: 2, Title: "B", Status: model.StatusTodo},
	})
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	changed, err := s.Checkoff(ctx, 1)
	if err != nil || !changed {
		t.Fatalf("first checkoff: changed=%v err=%v", changed, err)
	}
	once := s.Tasks()
	writes := kv.Writes()

	changed, err = s.Checkoff(ctx, 1)
	if err != nil || changed {
		t.Fatalf("second checkoff must be a no-op: changed=%v err=%v", changed, err)
	}
	if !equalTasks(once, s.Tasks()) || kv.Writes() != writes {
		t.Fatal("second checkoff changed state or wrote")
	}

	want := model.Task{ID: 1, Title: "A", DueDate: "2025-06-01", Status: model.StatusDone}
	if once[0] != want {
		t.Fatalf("checkoff must only flip status, got %+v", once[0])
	}
	if once[1].Status != model.StatusTodo {
		t.Fatalf("other tasks untouched, got %+v", once[1])
	}
}

func TestCheckoffUnknownIDIsNoop(t *testing.T) {
	s, kv := newTestStore(t)
	_, _, _ = s.Add(context.Background(), "A", "")
	writes := kv.Writes()
	changed, err := s.Checkoff(context.Background(), 424242)
	if err != nil || changed {
		t.Fatalf("expected silent no-op, changed=%v err=%v", changed, err)
	}
	if kv.Writes() != writes {
		t.Fatal("unknown id must not persist")
	}
}

func TestClearCompleted(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, []model.Task{
		{ID: 1, Title: "a", Status: model.StatusTodo},
		{ID: 2, Title: "b", Status: model.StatusDone},
		{ID: 3, Title: "c", Status: model.StatusDone},
		{ID: 4, Title: "d", Status: model.StatusTodo},
	})
	ctx := context.Background()
	_ = s.Load(ctx)

	removed, err := s.ClearCompleted(ctx)
	if err != nil || removed != 2 {
		t.Fatalf("clear: removed=%d err=%v", removed, err)
	}
	want := []model.Task{
		{ID: 1, Title: "a", Status: model.StatusTodo},
		{ID: 4, Title: "d", Status: model.StatusTodo},
	}
	if !equalTasks(s.Tasks(), want) {
		t.Fatalf("unexpected remainder: %#v", s.Tasks())
	}
	if !equalTasks(persisted(t, kv), want) {
		t.Fatal("clear must persist the remainder")
	}

	writes := kv.Writes()
	removed, err = s.ClearCompleted(ctx)
	if err != nil || removed != 0 || kv.Writes() != writes {
		t.Fatalf("second clear must be a no-op: removed=%d err=%v", removed, err)
	}
}

func TestImportMergeOverride(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, []model.Task{{ID: 1, Title: "A", Status: model.StatusTodo}})
	ctx := context.Background()
	_ = s.Load(ctx)

	n, err := s.Import(ctx, []model.Task{
		{ID: 1, Title: "A-edited", Status: model.StatusDone},
		{ID: 2, Title: "B", Status: model.StatusTodo},
	})
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	want := []model.Task{
		{ID: 1, Title: "A-edited", Status: model.StatusDone},
		{ID: 2, Title: "B", Status: model.StatusTodo},
	}
	if !equalTasks(s.Tasks(), want) {
		t.Fatalf("unexpected merge: %#v", s.Tasks())
	}
	if !equalTasks(persisted(t, kv), want) {
		t.Fatal("import must persist the merged collection")
	}
}

func TestImportRejectsNonArray(t *testing.T) {
	s, kv := newTestStore(t)
	_, _, _ = s.Add(context.Background(), "keep me", "")
	before := s.Tasks()
	writes := kv.Writes()

	for _, payload := range []any{nil, "tasks", 42, map[string]any{"id": 1}, []byte(`[]`)} {
		n, err := s.Import(context.Background(), payload)
		if !errors.Is(err, ErrNotArray) || n != 0 {
			t.Fatalf("payload %T: expected ErrNotArray, got n=%d err=%v", payload, n, err)
		}
	}
	if !equalTasks(before, s.Tasks()) || kv.Writes() != writes {
		t.Fatal("rejected import must leave the collection untouched")
	}
}

func TestImportJSONSkipsUndecodableRecords(t *testing.T) {
	s, _ := newTestStore(t)
	n, err := s.ImportJSON(context.Background(), []byte(`[
		{"id": 1, "title": "ok", "dueDate": "", "status": "todo"},
		"stray string",
		{"title": "no id"},
		{"id": 2, "title": "", "dueDate": "whenever", "status": "later"}
	]`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 merged records, got %d", n)
	}
	got := s.Tasks()
	if len(got) != 2 || got[1].Status != model.Status("later") || got[1].DueDate != "whenever" {
		t.Fatalf("decodable records are trusted as-is, got %#v", got)
	}
}

func TestImportJSONMalformedIsNoop(t *testing.T) {
	s, kv := newTestStore(t)
	_, _, _ = s.Add(context.Background(), "keep", "")
	writes := kv.Writes()
	for _, raw := range []string{"", "not json", `[{"id":1}] trailing`, `{"id": 1}`} {
		if _, err := s.ImportJSON(context.Background(), []byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	if len(s.Tasks()) != 1 || kv.Writes() != writes {
		t.Fatal("malformed import must not change or persist")
	}
}

func TestImportJSONKeepsLargeIDsExact(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.ImportJSON(context.Background(), []byte(`[{"id": 9007199254740993, "title": "big", "dueDate": "", "status": "todo"}]`)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := s.Tasks(); len(got) != 1 || got[0].ID != 9007199254740993 {
		t.Fatalf("expected exact id, got %#v", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, []model.Task{
		{ID: 1, Title: "A", DueDate: "2025-06-14", Status: model.StatusTodo},
		{ID: 2, Title: "B", DueDate: "", Status: model.StatusDone},
		{ID: 3, Title: "C, with comma", DueDate: "2025-07-01", Status: model.StatusTodo},
	})
	ctx := context.Background()
	_ = s.Load(ctx)
	before := s.Tasks()

	raw, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := s.ImportJSON(ctx, raw); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !equalTasks(before, s.Tasks()) {
		t.Fatalf("round trip changed collection:\nbefore %#v\nafter  %#v", before, s.Tasks())
	}
}

func TestClassifyAndCountsPartition(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, []model.Task{
		{ID: 1, Title: "due today", DueDate: "2025-06-15", Status: model.StatusTodo},
		{ID: 2, Title: "due yesterday", DueDate: "2025-06-14", Status: model.StatusTodo},
		{ID: 3, Title: "done long ago", DueDate: "2025-06-01", Status: model.StatusDone},
		{ID: 4, Title: "someday", Status: model.StatusTodo},
	})
	_ = s.Load(context.Background())
	ref := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	c := s.Classify(ref)
	if len(c.Overdue) != 1 || c.Overdue[0].ID != 2 {
		t.Fatalf("unexpected overdue: %#v", c.Overdue)
	}
	if len(c.Upcoming) != 2 || c.Upcoming[0].ID != 1 || c.Upcoming[1].ID != 4 {
		t.Fatalf("unexpected upcoming: %#v", c.Upcoming)
	}
	if len(c.Done) != 1 || c.Done[0].ID != 3 {
		t.Fatalf("unexpected done: %#v", c.Done)
	}

	counts := s.Counts(ref)
	if counts.Total != len(s.Tasks()) || counts.Total != counts.Overdue+counts.Todo+counts.Done {
		t.Fatalf("counts do not partition: %+v", counts)
	}
}

func TestClassifyCacheInvalidatedOnMutationAndDay(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	ref := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	task, _, _ := s.Add(ctx, "pay rent", "2025-06-15")

	if got := s.Counts(ref); got.Todo != 1 || got.Overdue != 0 {
		t.Fatalf("unexpected counts: %+v", got)
	}

	c := s.Classify(ref)
	c.Upcoming[0].Title = "mutated by caller"
	if s.Classify(ref).Upcoming[0].Title != "pay rent" {
		t.Fatal("callers must not be able to corrupt the cached partition")
	}

	if got := s.Counts(ref.AddDate(0, 0, 1)); got.Overdue != 1 {
		t.Fatalf("expected overdue on the next day, got %+v", got)
	}

	if _, err := s.Checkoff(ctx, task.ID); err != nil {
		t.Fatalf("checkoff: %v", err)
	}
	if got := s.Counts(ref); got.Done != 1 || got.Todo != 0 {
		t.Fatalf("expected cache invalidated by checkoff, got %+v", got)
	}
}

func TestStoreOverSQLite(t *testing.T) {
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "checkoff.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer kv.Close()
	ctx := context.Background()

	s, err := New(kv, WithClock(fixedClock(1)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = s.Load(ctx)
	_, _, _ = s.Add(ctx, "persist me", "2025-06-15")

	reloaded, _ := New(kv)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Tasks()
	if len(got) != 1 || got[0].Title != "persist me" || got[0].ID != 1 {
		t.Fatalf("unexpected reloaded tasks: %#v", got)
	}
}

func TestStoresSharingOneDatabaseKeepEachOthersWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "checkoff.db")
	lockPath := dbPath + ".lock"
	ctx := context.Background()

	open := func(clock int64) *TaskStore {
		kv, err := storage.OpenSQLite(dbPath, storage.WithLockPath(lockPath))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = kv.Close() })
		s, err := New(kv, WithClock(fixedClock(clock)))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Load(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}
		return s
	}
	tui := open(1000)
	cli := open(1000)

	a, _, err := tui.Add(ctx, "A", "")
	if err != nil {
		t.Fatalf("add A: %v", err)
	}
	b, _, err := cli.Add(ctx, "B from CLI", "")
	if err != nil {
		t.Fatalf("add B: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("second store reused id %d", a.ID)
	}
	if _, err := tui.Checkoff(ctx, a.ID); err != nil {
		t.Fatalf("checkoff A: %v", err)
	}

	fresh := open(0)
	got := fresh.Tasks()
	want := []model.Task{
		{ID: a.ID, Title: "A", Status: model.StatusDone},
		{ID: b.ID, Title: "B from CLI", Status: model.StatusTodo},
	}
	if !equalTasks(got, want) {
		t.Fatalf("lost update across stores:\n got %#v\nwant %#v", got, want)
	}
	if !equalTasks(tui.Tasks(), want) {
		t.Fatalf("mutating store must see the other store's task, got %#v", tui.Tasks())
	}
}

func TestMutationStartsFromPersistedSlot(t *testing.T) {
	s, kv := newTestStore(t, WithClock(fixedClock(50)))
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	seed(t, kv, []model.Task{{ID: 7, Title: "written elsewhere", Status: model.StatusDone}})

	removed, err := s.ClearCompleted(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected the externally written done task cleared, removed=%d err=%v", removed, err)
	}
	if got := persisted(t, kv); len(got) != 0 {
		t.Fatalf("expected empty slot, got %#v", got)
	}
}

func TestImportJSONQuotedIDDoesNotReplaceNumericID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := s.ImportJSON(ctx, []byte(`[{"id":5,"title":"num","dueDate":"","status":"todo"}]`)); err != nil {
		t.Fatalf("import numeric: %v", err)
	}
	n, err := s.ImportJSON(ctx, []byte(`[{"id":"5","title":"str","dueDate":"","status":"todo"}]`))
	if err != nil || n != 0 {
		t.Fatalf("expected quoted id skipped, n=%d err=%v", n, err)
	}
	got := s.Tasks()
	if len(got) != 1 || got[0].ID != 5 || got[0].Title != "num" {
		t.Fatalf("numeric task must survive, got %#v", got)
	}
}

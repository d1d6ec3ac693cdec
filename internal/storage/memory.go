package storage

import (
	"context"
	"sync"
)

// MemoryKV is an in-process KV. Tests use it in place of SQLite; FailSet and
// FailGet inject write and read errors.
type MemoryKV struct {
	mu      sync.Mutex
	data    map[string]string
	writes  int
	FailSet error
	FailGet error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(key, value)
}

func (m *MemoryKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return m.FailGet
	}
	current, ok := m.data[key]
	next, write, err := fn(current, ok)
	if err != nil || !write {
		return err
	}
	return m.putLocked(key, next)
}

func (m *MemoryKV) putLocked(key, value string) error {
	if m.FailSet != nil {
		return m.FailSet
	}
	m.data[key] = value
	m.writes++
	return nil
}

// Writes counts successful Set calls.
func (m *MemoryKV) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

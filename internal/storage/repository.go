package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrLockTimeout = errors.New("storage: timed out waiting for write lock")
	ErrClosed      = errors.New("storage: closed")
)

// UpdateFunc receives the slot's current value (ok is false when the slot
// is absent) and returns its replacement. write=false leaves the slot as it
// was; a non-nil error aborts the update.
type UpdateFunc func(current string, ok bool) (next string, write bool, err error)

// KV is the durable string-keyed slot store the task store persists into.
// Every value is an opaque blob; a write replaces the previous value whole.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Update runs fn against the latest stored value and writes its result
	// without any other writer getting in between.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

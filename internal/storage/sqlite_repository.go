package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteTimeLayout   = time.RFC3339Nano
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

type SQLiteOption func(*SQLiteKV)

// WithLockPath holds an exclusive file lock at path for every Update, so a
// CLI invocation and a running TUI sharing one database never interleave
// their read-modify-write cycles.
func WithLockPath(path string) SQLiteOption {
	return func(r *SQLiteKV) { r.lockPath = path }
}

func WithLockTimeout(d time.Duration) SQLiteOption {
	return func(r *SQLiteKV) {
		if d > 0 {
			r.lockTimeout = d
		}
	}
}

func WithLogger(log *slog.Logger) SQLiteOption {
	return func(r *SQLiteKV) {
		if log != nil {
			r.log = log
		}
	}
}

func WithClock(now func() time.Time) SQLiteOption {
	return func(r *SQLiteKV) {
		if now != nil {
			r.now = now
		}
	}
}

type SQLiteKV struct {
	db          *sql.DB
	lockPath    string
	lockTimeout time.Duration
	log         *slog.Logger
	now         func() time.Time
	closed      atomic.Bool
}

func NewSQLiteKV(db *sql.DB, opts ...SQLiteOption) (*SQLiteKV, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	r := &SQLiteKV{
		db:          db,
		lockTimeout: defaultLockTimeout,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OpenSQLite opens the database at path, applies pending migrations and
// returns a ready KV.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteKV(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	repo.log.Debug("sqlite kv opened", "path", path, "lock", repo.lockPath)
	return repo, nil
}

// Close releases the database. Every later call returns ErrClosed.
func (r *SQLiteKV) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	if r.closed.Load() {
		return "", false, ErrClosed
	}
	return readSlot(ctx, r.db, key)
}

func (r *SQLiteKV) Set(ctx context.Context, key, value string) error {
	return r.Update(ctx, key, func(string, bool) (string, bool, error) {
		return value, true, nil
	})
}

// Update holds the file lock (when configured) and one transaction across
// the read, fn and the write, so concurrent writers in other processes
// always start from what the previous one stored.
func (r *SQLiteKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if r.closed.Load() {
		return ErrClosed
	}
	unlock, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, ok, err := readSlot(ctx, tx, key)
	if err != nil {
		return err
	}
	next, write, err := fn(current, ok)
	if err != nil {
		return err
	}
	if !write {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, next, mustTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	r.log.Debug("kv slot written", "key", key, "bytes", len(next))
	return nil
}

// UpdatedAt reports when key was last written.
func (r *SQLiteKV) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	if r.closed.Load() {
		return time.Time{}, ErrClosed
	}
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}
	return time.Parse(sqliteTimeLayout, raw)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readSlot(ctx context.Context, q rowQuerier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteKV) acquire(ctx context.Context) (func(), error) {
	if r.lockPath == "" {
		return func() {}, nil
	}
	fl := flock.New(r.lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, r.lockPath)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			r.log.Warn("release kv lock", "path", r.lockPath, "err", err)
		}
	}, nil
}

// dsn asks go-sqlite3 for BEGIN IMMEDIATE so an update takes the database
// write lock before it reads.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate"
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

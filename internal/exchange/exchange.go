// Package exchange writes and reads backup files for the task collection.
// JSON backups are the interchange format; TOON is a compact read-only view.
package exchange

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toon "github.com/toon-format/toon-go"

	"github.com/sandeepkv93/checkoff/internal/model"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTOON Format = "toon"
)

const backupPrefix = "checkoff_backup_"

var (
	ErrUnknownFormat = errors.New("exchange: unknown format")
	ErrEmptyFile     = errors.New("exchange: import file is empty")
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatTOON:
		return FormatTOON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// BackupName returns checkoff_backup_<unix millis>.<format>.
func BackupName(now time.Time, f Format) string {
	return fmt.Sprintf("%s%d.%s", backupPrefix, now.UnixMilli(), f)
}

// Encode renders tasks in the given format.
func Encode(f Format, tasks []model.Task) ([]byte, error) {
	switch f {
	case FormatJSON:
		return model.MarshalTasks(tasks)
	case FormatTOON:
		out, err := EncodeTOON(tasks)
		return []byte(out), err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// EncodeTOON renders tasks as one TOON table:
// tasks[N]{id,title,dueDate,status}: followed by one row per task.
func EncodeTOON(tasks []model.Task) (string, error) {
	if len(tasks) == 0 {
		return "tasks[0]{id,title,dueDate,status}:\n", nil
	}
	rows := make([]toon.Object, len(tasks))
	for i, t := range tasks {
		rows[i] = toon.NewObject(
			toon.Field{Key: "id", Value: t.ID},
			toon.Field{Key: "title", Value: t.Title},
			toon.Field{Key: "dueDate", Value: t.DueDate},
			toon.Field{Key: "status", Value: string(t.Status)},
		)
	}
	doc := toon.NewObject(toon.Field{Key: "tasks", Value: rows})
	out, err := toon.MarshalString(doc)
	if err != nil {
		return "", fmt.Errorf("exchange: toon marshal: %w", err)
	}
	return out + "\n", nil
}

// WriteBackup writes tasks into dir under a fresh BackupName and returns the
// file path. The file appears atomically: temp file, fsync, rename.
func WriteBackup(dir string, now time.Time, f Format, tasks []model.Task) (string, error) {
	data, err := Encode(f, tasks)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("exchange: create export dir: %w", err)
	}
	path := filepath.Join(dir, BackupName(now, f))
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("exchange: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("exchange: write backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("exchange: sync backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("exchange: close backup: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("exchange: rename backup: %w", err)
	}
	success = true
	return nil
}

// ReadImportFile returns the raw contents of a JSON backup. Parsing and
// merging are left to the store.
func ReadImportFile(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("exchange: import path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exchange: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

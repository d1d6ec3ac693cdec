package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidStatus  = errors.New("model: invalid task status")
	ErrInvalidDueDate = errors.New("model: invalid due date")
	ErrUndecodable    = errors.New("model: record is not a task")
)

type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusDone:
		return true
	default:
		return false
	}
}

// Task is the persisted and exported shape of one checklist item.
type Task struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
	Status  Status `json:"status"`
}

func (t Task) IsDone() bool { return t.Status == StatusDone }

func (t Task) HasDueDate() bool { return strings.TrimSpace(t.DueDate) != "" }

func (t Task) Validate() error {
	if t.ID == 0 {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.HasDueDate() {
		if _, err := ParseDueDate(t.DueDate); err != nil {
			return err
		}
	}
	return nil
}

// MarshalTasks encodes tasks as a JSON array. A nil slice encodes as [].
func MarshalTasks(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(tasks)
}

type candidate struct {
	ID      json.RawMessage `json:"id"`
	Title   string          `json:"title"`
	DueDate string          `json:"dueDate"`
	Status  Status          `json:"status"`
}

// DecodeCandidate turns one element of an untrusted import payload into a
// Task. Only the id must be usable as an integer key; the remaining fields
// are taken as-is when they have the right JSON type.
func DecodeCandidate(rec any) (Task, error) {
	if t, ok := rec.(Task); ok {
		return t, nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Task{}, fmt.Errorf("%w: not an object", ErrUndecodable)
	}
	var c candidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	id, err := integerID(c.ID)
	if err != nil {
		return Task{}, err
	}
	return Task{ID: id, Title: c.Title, DueDate: c.DueDate, Status: c.Status}, nil
}

// integerID accepts only a JSON number. A quoted id such as "5" is a
// different key from 5 and is rejected rather than coerced.
func integerID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: missing id", ErrUndecodable)
	}
	if raw[0] == '"' {
		return 0, fmt.Errorf("%w: id %s is a string", ErrUndecodable, raw)
	}
	n := json.Number(raw)
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: id %s is not an integer", ErrUndecodable, n)
	}
	return int64(f), nil
}

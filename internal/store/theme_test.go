package store

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/checkoff/internal/storage"
)

func TestThemeDefaultsToLight(t *testing.T) {
	kv := storage.NewMemoryKV()
	p, err := NewThemePreference(kv)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if p.IsDark() {
		t.Fatal("expected light theme by default")
	}
	if kv.Writes() != 0 {
		t.Fatal("init must not write")
	}
}

func TestThemeInitReadsSentinel(t *testing.T) {
	cases := map[string]bool{"no": true, "yes": false, "maybe": false}
	for raw, wantDark := range cases {
		kv := storage.NewMemoryKV()
		_ = kv.Set(context.Background(), ThemeKey, raw)
		p, _ := NewThemePreference(kv)
		if err := p.Init(context.Background()); err != nil {
			t.Fatalf("init %q: %v", raw, err)
		}
		if p.IsDark() != wantDark {
			t.Fatalf("value %q: dark=%v, want %v", raw, p.IsDark(), wantDark)
		}
	}
}

func TestThemeTogglePersists(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	p, _ := NewThemePreference(kv)
	_ = p.Init(ctx)

	dark, err := p.Toggle(ctx)
	if err != nil || !dark {
		t.Fatalf("toggle to dark: dark=%v err=%v", dark, err)
	}
	if v, _, _ := kv.Get(ctx, ThemeKey); v != "no" {
		t.Fatalf("expected sentinel no, got %q", v)
	}

	dark, _ = p.Toggle(ctx)
	if dark {
		t.Fatal("expected light after second toggle")
	}
	if v, _, _ := kv.Get(ctx, ThemeKey); v != "yes" {
		t.Fatalf("expected sentinel yes, got %q", v)
	}

	again, _ := NewThemePreference(kv)
	_ = again.Init(ctx)
	if again.IsDark() {
		t.Fatal("expected persisted light theme")
	}
}

func TestThemeToggleWriteFailure(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.FailSet = errors.New("read-only")
	p, _ := NewThemePreference(kv)
	if _, err := p.Toggle(context.Background()); err == nil {
		t.Fatal("expected persist error")
	}
}

func TestThemeToggleStartsFromPersistedValue(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	tui, _ := NewThemePreference(kv)
	_ = tui.Init(ctx)
	cli, _ := NewThemePreference(kv)
	_ = cli.Init(ctx)

	if dark, err := cli.Toggle(ctx); err != nil || !dark {
		t.Fatalf("cli toggle: dark=%v err=%v", dark, err)
	}
	dark, err := tui.Toggle(ctx)
	if err != nil {
		t.Fatalf("tui toggle: %v", err)
	}
	if dark {
		t.Fatal("expected the second toggle to flip the stored dark theme back to light")
	}
	if v, _, _ := kv.Get(ctx, ThemeKey); v != "yes" {
		t.Fatalf("expected sentinel yes, got %q", v)
	}
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sandeepkv93/checkoff/internal/storage"
)

const (
	themeLight = "yes"
	themeDark  = "no"
)

// ThemePreference is the persisted dark/light switch. Light is the default
// when nothing has been saved.
type ThemePreference struct {
	mu   sync.Mutex
	kv   storage.KV
	log  *slog.Logger
	dark bool
}

func NewThemePreference(kv storage.KV, opts ...Option) (*ThemePreference, error) {
	if kv == nil {
		return nil, ErrNilKV
	}
	o := buildOptions(opts)
	return &ThemePreference{kv: kv, log: o.log}, nil
}

func (p *ThemePreference) Init(ctx context.Context) error {
	raw, ok, err := p.kv.Get(ctx, ThemeKey)
	if err != nil {
		return fmt.Errorf("store: read theme: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dark = ok && raw == themeDark
	return nil
}

// Toggle flips the stored theme, persists it, and returns whether dark is
// now on. The flip starts from the persisted value when there is one, so a
// toggle made by another process is not undone.
func (p *ThemePreference) Toggle(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.kv.Update(ctx, ThemeKey, func(raw string, ok bool) (string, bool, error) {
		if ok {
			p.dark = raw == themeDark
		}
		p.dark = !p.dark
		if p.dark {
			return themeDark, true, nil
		}
		return themeLight, true, nil
	})
	if err != nil {
		p.log.Error("failed to persist theme", "err", err)
		return p.dark, fmt.Errorf("store: persist theme: %w", err)
	}
	p.log.Debug("theme toggled", "dark", p.dark)
	return p.dark, nil
}

func (p *ThemePreference) IsDark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

package update

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/checkoff/internal/scheduler"
	"github.com/sandeepkv93/checkoff/internal/store"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type FormField int

const (
	FieldTitle FormField = iota
	FieldDate
)

type FormState struct {
	Active bool
	Field  FormField
	Err    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Model is the bubbletea model for the checklist screen. It holds no task
// state of its own: every render reads the TaskStore.
type Model struct {
	Tasks          *store.TaskStore
	Theme          *store.ThemePreference
	Scheduler      *scheduler.Engine
	Config         RuntimeConfig
	Keys           KeyMap
	Cursor         int
	SelectedTaskID int64
	Form           FormState
	Palette        CommandPaletteState
	HelpVisible    bool
	AlarmLog       []scheduler.Alarm
	Status         StatusBar
	Quitting       bool
	LastError      error

	log          *slog.Logger
	now          func() time.Time
	titleInput   textinput.Model
	dateInput    textinput.Model
	commandInput textinput.Model
	helpModel    help.Model
}

type Option func(*Model)

func WithScheduler(engine *scheduler.Engine) Option {
	return func(m *Model) { m.Scheduler = engine }
}

func WithConfig(cfg RuntimeConfig) Option {
	return func(m *Model) { m.Config = cfg }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type AlarmDueMsg struct {
	Alarm scheduler.Alarm
}

func NewModel(tasks *store.TaskStore, theme *store.ThemePreference, opts ...Option) Model {
	m := Model{
		Tasks:  tasks,
		Theme:  theme,
		Config: DefaultRuntimeConfig(),
		Keys:   DefaultKeyMap(),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.initBubbleComponents()
	m.syncSelection()
	return m
}

func (m *Model) initBubbleComponents() {
	m.titleInput = textinput.New()
	m.titleInput.Prompt = "title> "
	m.titleInput.Placeholder = "What are you doing today?"
	m.titleInput.CharLimit = 256
	m.titleInput.Width = 48

	m.dateInput = textinput.New()
	m.dateInput.Prompt = "due> "
	m.dateInput.Placeholder = "YYYY-MM-DD (optional)"
	m.dateInput.CharLimit = 10
	m.dateInput.Width = 24

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
}

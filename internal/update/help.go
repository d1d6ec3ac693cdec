package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/checkoff/internal/views"
)

type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	New      key.Binding
	Checkoff key.Binding
	Clear    key.Binding
	Export   key.Binding
	Theme    key.Binding
	Palette  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		Checkoff: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space/x", "check off")),
		Clear:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear completed")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export backup")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle theme")),
		Palette:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Checkoff, k.Palette, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Checkoff},
		{k.New, k.Clear, k.Export},
		{k.Theme, k.Palette, k.Help, k.Quit},
	}
}

const paletteHelp = `
## Commands

| command | effect |
|---|---|
| add <title> [due:YYYY-MM-DD] | add a task |
| done <id> | check off a task |
| clear | remove completed tasks |
| export [json\|toon] | write a backup file |
| import <path> | merge a JSON backup |
| theme | toggle light/dark |
`

func (m Model) helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	for _, group := range m.Keys.FullHelp() {
		for _, kb := range group {
			h := kb.Help()
			b.WriteString(fmt.Sprintf("- `%s` %s\n", h.Key, h.Desc))
		}
	}
	b.WriteString(paletteHelp)
	return b.String()
}

func (m Model) renderHelpIfVisible(th views.Theme) string {
	if !m.HelpVisible {
		return ""
	}
	return views.RenderHelpPanel(th, views.HelpPanelData{
		Markdown: m.helpMarkdown(),
		HelpView: m.helpModel.FullHelpView(m.Keys.FullHelp()),
	})
}

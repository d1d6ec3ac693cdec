package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/checkoff/internal/commands"
)

func (m Model) openPalette() Model {
	m.Palette = CommandPaletteState{Active: true}
	m.commandInput.SetValue("")
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.setResult("", err)
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			return result(m.addTask(a.Title, a.DueDate))
		},
		Done: func(d commands.DoneArgs) (commands.Result, error) {
			return result(m.checkoffTask(d.ID))
		},
		Clear: func() (commands.Result, error) {
			return result(m.clearCompleted())
		},
		Export: func(e commands.ExportArgs) (commands.Result, error) {
			return result(m.exportBackup(e.Format))
		},
		Import: func(i commands.ImportArgs) (commands.Result, error) {
			return result(m.importBackup(i.Path))
		},
		Theme: func() (commands.Result, error) {
			return result(m.toggleTheme())
		},
	})
	if err != nil {
		m.log.Warn("palette command failed", "command", string(cmd.Type), "err", err)
	}
	m.setResult(res.Message, err)
	return m
}

func result(msg string, err error) (commands.Result, error) {
	return commands.Result{Message: msg}, err
}

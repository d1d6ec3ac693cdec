package update

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) openForm() Model {
	m.Form = FormState{Active: true, Field: FieldTitle}
	m.titleInput.SetValue("")
	m.dateInput.SetValue("")
	m.titleInput.Focus()
	m.dateInput.Blur()
	m.Status = StatusBar{Text: "new task"}
	return m
}

func (m Model) closeForm() Model {
	m.Form = FormState{}
	m.titleInput.SetValue("")
	m.dateInput.SetValue("")
	m.titleInput.Blur()
	m.dateInput.Blur()
	return m
}

func (m Model) handleFormKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m = m.closeForm()
		m.Status = StatusBar{Text: "new task cancelled"}
		return m
	case "tab", "shift+tab":
		if m.Form.Field == FieldTitle {
			m.Form.Field = FieldDate
			m.titleInput.Blur()
			m.dateInput.Focus()
		} else {
			m.Form.Field = FieldTitle
			m.dateInput.Blur()
			m.titleInput.Focus()
		}
		return m
	case "enter":
		return m.submitForm()
	}

	if msg.Type == tea.KeyRunes {
		in := m.focusedInput()
		in.SetValue(in.Value() + string(msg.Runes))
		return m
	}
	in := m.focusedInput()
	*in, _ = in.Update(msg)
	return m
}

// submitForm keeps the form open on a blank title, the way the add button
// does nothing until a title is typed.
func (m Model) submitForm() Model {
	if strings.TrimSpace(m.titleInput.Value()) == "" {
		m.Form.Field = FieldTitle
		m.dateInput.Blur()
		m.titleInput.Focus()
		return m
	}
	text, err := m.addTask(m.titleInput.Value(), m.dateInput.Value())
	if errors.Is(err, errInvalidDueDate) {
		m.Form.Err = err.Error()
		m.Form.Field = FieldDate
		m.titleInput.Blur()
		m.dateInput.Focus()
		return m
	}
	m = m.closeForm()
	m.setResult(text, err)
	return m
}

func (m *Model) focusedInput() *textinput.Model {
	if m.Form.Field == FieldDate {
		return &m.dateInput
	}
	return &m.titleInput
}

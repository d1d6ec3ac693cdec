package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Theme is the set of styles for one palette. Light is the default.
type Theme struct {
	Dark      bool
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Overdue   lipgloss.Style
	Todo      lipgloss.Style
	Done      lipgloss.Style
	Total     lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Panel     lipgloss.Style
	Footer    lipgloss.Style
	Highlight lipgloss.Style
}

func NewTheme(dark bool) Theme {
	if dark {
		return Theme{
			Dark:      true,
			Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			Subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
			Overdue:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
			Todo:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("221")),
			Done:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
			Total:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
			Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("24")),
			Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
			Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
			Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("24")).Padding(0, 1),
			Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		}
	}
	return Theme{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		Subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Overdue:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("124")),
		Todo:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("136")),
		Done:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28")),
		Total:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("26")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("153")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("110")).Padding(0, 1),
		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("32")),
	}
}

type AppData struct {
	Theme         Theme
	Header        string
	Counts        string
	Body          string
	Overlay       string
	StatusLine    string
	StatusIsError bool
	Notification  string
	Footer        string
}

func RenderApp(data AppData) string {
	th := data.Theme
	lines := []string{
		th.Title.Render(data.Header),
		th.Subtitle.Render("Keep your tasks moving forward."),
		"",
		data.Counts,
		"",
		data.Body,
	}
	if data.Overlay != "" {
		lines = append(lines, th.Panel.Render(data.Overlay))
	}
	if data.StatusLine != "" {
		status := th.Status.Render(data.StatusLine)
		if data.StatusIsError {
			status = th.Error.Render(data.StatusLine)
		}
		lines = append(lines, status)
	}
	if data.Notification != "" {
		lines = append(lines, th.Highlight.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, th.Footer.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders md with the glamour style matching the theme and
// falls back to the raw text when rendering fails.
func RenderMarkdown(md string, dark bool) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	style := "light"
	if dark {
		style = "dark"
	}
	out, err := glamour.Render(md, style)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

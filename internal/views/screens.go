package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type CountsData struct {
	Overdue int
	Todo    int
	Done    int
	Total   int
}

type TaskRowData struct {
	ID       int64
	Title    string
	DueDate  string
	Done     bool
	Overdue  bool
	Selected bool
}

type TaskListData struct {
	Overdue   []TaskRowData
	Remaining []TaskRowData
	Completed []TaskRowData
}

type FormData struct {
	TitleView string
	DateView  string
	Field     int
	ErrorText string
}

type HelpPanelData struct {
	Markdown string
	HelpView string
}

func RenderCounts(th Theme, c CountsData) string {
	cell := func(style lipgloss.Style, n int, label string) string {
		return th.Panel.Render(style.Render(strconv.Itoa(n)) + "\n" + th.Muted.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell(th.Overdue, c.Overdue, "OVERDUE"),
		cell(th.Todo, c.Todo, "TO DO"),
		cell(th.Done, c.Done, "DONE"),
		cell(th.Total, c.Total, "TOTAL"),
	)
}

// RenderTaskList draws the Overdue section only when it has tasks, the
// Remaining section with a caught-up message when nothing is left to do,
// and the Completed section.
func RenderTaskList(th Theme, data TaskListData) string {
	var b strings.Builder
	if len(data.Overdue) > 0 {
		renderSection(&b, th, th.Overdue, "Overdue Tasks", data.Overdue)
		b.WriteString("\n")
	}

	b.WriteString(sectionHeader(th, th.Todo, "Remaining Tasks", len(data.Remaining)))
	if len(data.Remaining) == 0 && len(data.Overdue) == 0 {
		b.WriteString("  Nice! You're all caught up.\n")
	} else {
		renderRows(&b, th, data.Remaining)
	}
	b.WriteString("\n")

	b.WriteString(sectionHeader(th, th.Done, "Completed Tasks", len(data.Completed)))
	renderRows(&b, th, data.Completed)
	return strings.TrimRight(b.String(), "\n")
}

func renderSection(b *strings.Builder, th Theme, accent lipgloss.Style, title string, rows []TaskRowData) {
	b.WriteString(sectionHeader(th, accent, title, len(rows)))
	renderRows(b, th, rows)
}

func sectionHeader(th Theme, accent lipgloss.Style, title string, n int) string {
	return fmt.Sprintf("%s %s %s\n", accent.Render("▍"), th.Title.Render(title), th.Muted.Render("("+strconv.Itoa(n)+")"))
}

func renderRows(b *strings.Builder, th Theme, rows []TaskRowData) {
	for _, row := range rows {
		b.WriteString(renderRow(th, row))
		b.WriteString("\n")
	}
}

func renderRow(th Theme, row TaskRowData) string {
	box := "[ ]"
	if row.Done {
		box = "[x]"
	}
	cursor := " "
	if row.Selected {
		cursor = ">"
	}
	line := fmt.Sprintf("%s %s %s", cursor, box, row.Title)
	if row.DueDate != "" {
		due := "due " + row.DueDate
		if row.Overdue {
			due = th.Overdue.Render(due)
		} else {
			due = th.Muted.Render(due)
		}
		line += "  " + due
	}
	switch {
	case row.Selected:
		return th.Selected.Render(line)
	case row.Done:
		return th.Muted.Render(line)
	default:
		return line
	}
}

func RenderForm(th Theme, data FormData) string {
	var b strings.Builder
	b.WriteString(th.Title.Render("New task") + "\n")
	b.WriteString(marker(data.Field == 0) + " " + data.TitleView + "\n")
	b.WriteString(marker(data.Field == 1) + " " + data.DateView + "\n")
	if data.ErrorText != "" {
		b.WriteString(th.Error.Render("error: "+data.ErrorText) + "\n")
	}
	b.WriteString(th.Muted.Render("[tab] field  [enter] add  [esc] cancel"))
	return b.String()
}

func marker(active bool) string {
	if active {
		return ">"
	}
	return " "
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(th Theme, data HelpPanelData) string {
	parts := make([]string, 0, 2)
	if md := RenderMarkdown(data.Markdown, th.Dark); md != "" {
		parts = append(parts, md)
	}
	if data.HelpView != "" {
		parts = append(parts, data.HelpView)
	}
	return strings.Join(parts, "\n\n")
}

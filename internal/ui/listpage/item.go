package listpage

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/theme"
)

// RecordItem wraps a model.Record so it can be used in a bubbles/list.
type RecordItem struct {
	Record model.Record
	// Highlighted marks the record a notification pointed at.
	Highlighted bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i RecordItem) FilterValue() string { return i.Record.GetTitle() }

// Title returns the record title for the list.
func (i RecordItem) Title() string { return i.Record.GetTitle() }

// Description returns a short summary line for the list.
func (i RecordItem) Description() string {
	return i.Record.GetSummary() + " | " + relativeTime(i.Record.GetCreatedAt())
}

// ItemDelegate implements list.ItemDelegate for rendering records.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(RecordItem)
	if !ok {
		return
	}
	rec := ri.Record
	isSelected := index == m.Index()

	marker := "●"
	if ri.Highlighted {
		marker = lipgloss.NewStyle().Foreground(theme.ColorOrange).Render("★")
	}

	statusBadge := theme.StatusStyle(rec.GetStatus()).Render(rec.GetStatus())

	summary := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(rec.GetSummary())

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(rec.GetCreatedAt()))

	line := fmt.Sprintf(
		"%s %s %s  %s  %s",
		marker, statusBadge, rec.GetTitle(), summary, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// Package help renders the "?" overlay: every key binding by section and a
// legend for the header indicators.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/theme"
)

// Model is the help overlay.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates the overlay for km.
func New(km *keys.KeyMap, width, height int) Model {
	m := Model{keys: km, help: help.New()}
	m.SetSize(width, height)
	return m
}

// View renders the overlay.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)

	parts := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Keyboard shortcuts"),
		"",
	}
	for _, s := range m.keys.Sections() {
		parts = append(parts,
			heading.Render(s.Title),
			m.help.ShortHelpView(s.Bindings),
		)
	}
	parts = append(parts, "", heading.Render("Header"), legend())

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		MaxHeight(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func legend() string {
	var rows []string
	for _, s := range []model.ConnectionState{
		model.ConnectionOpen,
		model.ConnectionReconnecting,
		model.ConnectionClosed,
	} {
		rows = append(rows, theme.ConnectionStyle(s).Render("●")+" push "+s.String())
	}
	rows = append(rows, theme.UnreadStyle.Render("3")+" unread notifications, n opens them")
	return theme.HelpStyle.Render(strings.Join(rows, "\n"))
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 8
}

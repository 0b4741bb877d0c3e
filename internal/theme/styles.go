package theme

import "github.com/charmbracelet/lipgloss"

// Chrome: header, status bar and overlay panels.

var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

var (
	HelpStyle  = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)
)

// Record lists and their status tabs.

var (
	ListItemStyle = lipgloss.NewStyle().PaddingLeft(2)
	TabStyle      = lipgloss.NewStyle().Foreground(ColorGray).Padding(0, 1)
)

// SelectedItemStyle keeps the row aligned with ListItemStyle: one column of
// padding plus a one column left border.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

var ActiveTabStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Underline(true).
	Padding(0, 1)

// UnreadStyle is the red badge for unread notification counts and rows.
var UnreadStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// Package ui holds the frame shared by every console screen: a one-row
// header, the content area and a one-row status bar.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/theme"
)

const (
	headerRows    = 1
	statusBarRows = 1

	minWidth  = 20
	minHeight = headerRows + statusBarRows + 1
)

// Layout sizes the frame for the current terminal.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout, clamping tiny terminals to a usable minimum.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:  max(width, minWidth),
		Height: max(height, minHeight),
	}
}

// ContentWidth is the width available to the active view.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left between the header and the status bar.
func (l Layout) ContentHeight() int {
	return l.Height - headerRows - statusBarRows
}

// Header renders the title on the left and the indicators, separated by a
// space, on the right. The title is truncated when both do not fit.
func (l Layout) Header(title string, indicators ...string) string {
	right := theme.HeaderStyle.Render(strings.Join(indicators, " "))
	room := l.Width - lipgloss.Width(right)

	left := theme.HeaderStyle.
		Width(max(room, 0)).
		MaxWidth(max(room, 0)).
		MaxHeight(headerRows).
		Render(title)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// StatusBar renders the bottom row. An alert (an error or a one-off
// message) is tinted so it stands out from the usual key hints.
func (l Layout) StatusBar(text string, alert bool) string {
	style := theme.StatusBarStyle
	if alert {
		style = style.Foreground(theme.ColorYellow)
	}
	return style.Width(l.Width).MaxWidth(l.Width).MaxHeight(statusBarRows).Render(text)
}

// Frame stacks header, content and status bar. The content is padded or
// clipped to ContentHeight so the status bar stays on the last row.
func (l Layout) Frame(header, content, statusBar string) string {
	h := l.ContentHeight()
	body := lipgloss.NewStyle().
		Height(h).
		MaxHeight(h).
		MaxWidth(l.Width).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

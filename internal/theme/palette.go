// Package theme holds the console's colours and lipgloss styles.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Statuses waiting on an operator are yellow, settled ones green.
var statusColors = map[string]lipgloss.AdaptiveColor{
	model.StatusPending:  ColorYellow,
	model.StatusOpen:     ColorYellow,
	model.StatusAnswered: ColorGreen,
	model.StatusResolved: ColorGreen,
	model.StatusAccepted: ColorGreen,
	model.StatusRejected: ColorRed,
	model.StatusClosed:   ColorMagenta,
}

var kindColors = map[model.RecordKind]lipgloss.AdaptiveColor{
	model.KindEnquiry:         ColorBlue,
	model.KindContactMessage:  ColorGreen,
	model.KindReportedProduct: ColorOrange,
	model.KindUserFAQ:         ColorMagenta,
}

var connectionColors = map[model.ConnectionState]lipgloss.AdaptiveColor{
	model.ConnectionOpen:         ColorGreen,
	model.ConnectionConnecting:   ColorOrange,
	model.ConnectionReconnecting: ColorOrange,
}

func colorOr(c lipgloss.AdaptiveColor, ok bool) lipgloss.AdaptiveColor {
	if !ok {
		return ColorGray
	}
	return c
}

var badge = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// StatusStyle returns the badge style for a record status.
func StatusStyle(status string) lipgloss.Style {
	c, ok := statusColors[status]
	return badge.Foreground(colorOr(c, ok))
}

// KindLabelStyle returns the badge style for a record kind.
func KindLabelStyle(kind model.RecordKind) lipgloss.Style {
	c, ok := kindColors[kind]
	return badge.Foreground(colorOr(c, ok))
}

// ConnectionStyle colours the push indicator. Closed is gray.
func ConnectionStyle(state model.ConnectionState) lipgloss.Style {
	c, ok := connectionColors[state]
	return lipgloss.NewStyle().Bold(true).Foreground(colorOr(c, ok))
}

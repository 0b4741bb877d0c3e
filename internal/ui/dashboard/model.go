// Package dashboard renders the landing view: per-view totals from the
// count poller, live arrivals since login, and the push connection state.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/sync"
	"github.com/nhle/certconsole/internal/theme"
)

// Model is the dashboard view state. It has no key handling of its own;
// the view shortcuts are global.
type Model struct {
	counts   map[model.ViewKey]map[string]int
	errs     map[model.ViewKey]error
	arrivals map[model.ViewKey]int
	conn     model.ConnectionState
	width    int
	height   int
}

// New creates an empty dashboard.
func New(width, height int) Model {
	return Model{
		counts:   make(map[model.ViewKey]map[string]int),
		errs:     make(map[model.ViewKey]error),
		arrivals: make(map[model.ViewKey]int),
		width:    width,
		height:   height,
	}
}

// ApplyCounts records a poll result.
func (m *Model) ApplyCounts(msg sync.CountsMsg) {
	if msg.Error != nil {
		m.errs[msg.View] = msg.Error
		return
	}
	delete(m.errs, msg.View)
	m.counts[msg.View] = msg.Counts
}

// RecordArrival tallies a live notification against the view it targets.
func (m *Model) RecordArrival(n model.Notification) {
	view, _, ok := model.Route(n.Type)
	if !ok {
		return
	}
	m.arrivals[view]++
}

// SetConnection updates the push state shown in the summary line.
func (m *Model) SetConnection(s model.ConnectionState) {
	m.conn = s
}

// Count returns the last polled total of tab in view.
func (m Model) Count(view model.ViewKey, tab string) (int, bool) {
	c, ok := m.counts[view]
	if !ok {
		return 0, false
	}
	n, ok := c[tab]
	return n, ok
}

// Arrivals returns the live arrivals seen for view this session.
func (m Model) Arrivals(view model.ViewKey) int {
	return m.arrivals[view]
}

// Reset forgets everything; used on logout.
func (m *Model) Reset() {
	*m = New(m.width, m.height)
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render("Dashboard"))
	b.WriteString("  ")
	b.WriteString(theme.ConnectionStyle(m.conn).Render("● push " + m.conn.String()))
	b.WriteString("\n\n")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers("#", "View", "Breakdown", "New since login").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(theme.ColorBlue)
			}
			return s
		})

	for i, v := range model.ListViews {
		t.Row(
			fmt.Sprintf("%d", i+1),
			v.Title,
			m.breakdown(v),
			m.arrivalCell(v.Key),
		)
	}
	b.WriteString(t.Render())

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"1-4 open view | n notifications | r refresh counts",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) breakdown(v model.ViewSpec) string {
	if err, ok := m.errs[v.Key]; ok {
		return theme.ErrorStyle.Render("unavailable: " + err.Error())
	}
	c, ok := m.counts[v.Key]
	if !ok {
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Render("…")
	}
	if !v.Tabbed() {
		return fmt.Sprintf("%d total", c[""])
	}
	parts := make([]string, 0, len(v.Tabs))
	for _, tab := range v.Tabs {
		parts = append(parts, fmt.Sprintf("%s %d", tab.Label, c[tab.Key]))
	}
	return strings.Join(parts, " · ")
}

func (m Model) arrivalCell(view model.ViewKey) string {
	n := m.arrivals[view]
	if n == 0 {
		return "-"
	}
	return theme.UnreadStyle.Render(fmt.Sprintf("+%d", n))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

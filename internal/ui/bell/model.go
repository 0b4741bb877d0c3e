// Package bell renders the notification list behind the header's unread
// badge. Selecting an entry routes to the record it announces.
package bell

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/dispatch"
	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/theme"
)

// CloseMsg signals the parent to leave the notification view.
type CloseMsg struct{}

// Source is the notification store the bell reads and clears.
type Source interface {
	List() []model.Notification
	UnreadCount() int
	MarkAllRead()
	ClearAll()
	Version() uint64
}

// Model is the Bubble Tea model for the notification list.
type Model struct {
	src         Source
	keys        *keys.KeyMap
	entries     []model.Notification
	version     uint64
	selectedIdx int
	statusMsg   string
	width       int
	height      int
	now         func() time.Time
}

// New creates a notification list reading from src.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	m := Model{
		src:    src,
		keys:   k,
		width:  width,
		height: height,
		now:    time.Now,
	}
	m.Sync()
	return m
}

// Sync reloads the entries if the store changed since the last call.
func (m *Model) Sync() {
	if m.src == nil {
		m.entries = nil
		return
	}
	v := m.src.Version()
	if v == m.version && m.entries != nil {
		return
	}
	m.version = v
	m.entries = m.src.List()
	if m.selectedIdx >= len(m.entries) {
		m.selectedIdx = len(m.entries) - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.Sync()
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, dispatch.NotifyClicked(n)

	case key.Matches(msg, m.keys.MarkAllRead):
		if m.src == nil {
			return m, nil
		}
		m.src.MarkAllRead()
		m.statusMsg = "All notifications marked read"
		m.Sync()
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		if m.src == nil {
			return m, nil
		}
		m.src.ClearAll()
		m.statusMsg = "Notifications cleared"
		m.Sync()
		return m, nil
	}
	return m, nil
}

// Selected returns the highlighted notification.
func (m Model) Selected() (model.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.entries) {
		return model.Notification{}, false
	}
	return m.entries[m.selectedIdx], true
}

// Entries returns the notifications currently shown.
func (m Model) Entries() []model.Notification {
	return m.entries
}

// View renders the notification list.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	title := "Notifications"
	if m.src != nil {
		if n := m.src.UnreadCount(); n > 0 {
			title += " " + theme.UnreadStyle.Render(fmt.Sprintf("%d unread", n))
		}
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No notifications."))
	} else {
		for i, n := range m.entries {
			marker := "  "
			if !n.IsRead() {
				marker = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("● ")
			}
			ago := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(ago(m.now(), n.ReceivedAt))
			label := marker + n.Message() + "  " + ago

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter open | m mark all read | x clear | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func ago(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}

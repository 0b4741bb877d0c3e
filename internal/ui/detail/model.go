package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/theme"
)

// BackMsg signals the parent to close the detail panel.
type BackMsg struct{}

// ActionMsg signals the parent to apply an action to the shown record.
type ActionMsg struct {
	Action model.Action
	Record model.Record
}

// Model is the record detail view component.
type Model struct {
	record   model.Record
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.record != nil {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Approve):
			return m, m.action(model.ActionApprove)

		case key.Matches(msg, m.keys.Reject):
			return m, m.action(model.ActionReject)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a model.Action) tea.Cmd {
	if _, _, ok := model.Transition(m.record.GetKind(), a); !ok {
		return nil
	}
	rec := m.record
	return func() tea.Msg {
		return ActionMsg{Action: a, Record: rec}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.record == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No record selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.record == nil {
		return ""
	}

	rec := m.record
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(rec.GetTitle()))

	kindBadge := theme.KindLabelStyle(rec.GetKind()).
		Render(strings.ToUpper(string(rec.GetKind())))
	statusBadge := theme.StatusStyle(rec.GetStatus()).Render(rec.GetStatus())

	sections = append(sections, lipgloss.JoinHorizontal(
		lipgloss.Top, kindBadge, "  ", statusBadge,
	))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	fields, body := describe(rec)
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render(fmt.Sprintf("%-13s", f[0]+":")),
			valStyle.Render(f[1]),
		))
	}
	if !rec.GetCreatedAt().IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render(fmt.Sprintf("%-13s", "Created:")),
			valStyle.Render(rec.GetCreatedAt().Format("2006-01-02 15:04")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))

	for _, b := range body {
		sections = append(sections, "", separator, "")
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, headerStyle.Render(b[0]))
		text := b[1]
		if text == "" {
			text = lipgloss.NewStyle().
				Foreground(theme.ColorGray).
				Italic(true).
				Render("None")
		}
		sections = append(sections, text)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// describe returns the labelled fields and body sections of a record.
func describe(rec model.Record) (fields, body [][2]string) {
	switch r := rec.(type) {
	case model.Enquiry:
		fields = [][2]string{{"From", r.Name}, {"Email", r.Email}, {"Organisation", r.Organisation}}
		body = [][2]string{{"Message", r.Message}}
	case model.ContactMessage:
		fields = [][2]string{{"From", r.Name}, {"Email", r.Email}}
		body = [][2]string{{"Message", r.Message}, {"Reply", r.Reply}}
	case model.ReportedProduct:
		fields = [][2]string{{"Product", r.ProductName}, {"Product ID", r.ProductID}, {"Reporter", r.ReporterEmail}}
		body = [][2]string{{"Reason", r.Reason}}
	case model.UserFAQ:
		fields = [][2]string{{"Submitted by", r.SubmittedBy}}
		body = [][2]string{{"Question", r.Question}, {"Answer", r.Answer}}
	default:
		body = [][2]string{{"Summary", rec.GetSummary()}}
	}
	return fields, body
}

// SetRecord updates the record being displayed and re-renders the content.
// Refreshing the record that is already shown keeps the scroll position.
func (m *Model) SetRecord(rec model.Record) {
	same := m.record != nil && rec != nil && m.record.GetID() == rec.GetID()
	m.record = rec
	m.viewport.SetContent(m.renderContent())
	if !same {
		m.viewport.GotoTop()
	}
}

// Record returns the displayed record, or nil.
func (m Model) Record() model.Record {
	return m.record
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}

// Package replyform collects the text that accompanies a status change,
// such as the reply to a contact message or the answer to a user FAQ.
package replyform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/theme"
)

// SubmittedMsg is dispatched when the operator submits the form.
type SubmittedMsg struct {
	Record model.Record
	Action model.Action
	Text   string
}

// CancelMsg is dispatched when the operator aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text string
}

// Model is the Bubble Tea model for the reply form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	record model.Record
	action model.Action
	width  int
	height int
}

// New creates a new reply form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for rec. Existing reply text is prefilled.
func (m *Model) Start(rec model.Record, action model.Action) tea.Cmd {
	m.record = rec
	m.action = action
	m.fb.text = existingText(rec)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(label(rec)).
				Placeholder("Write the text sent with this decision...").
				Value(&m.fb.text).
				Validate(validateRequired(label(rec))),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// Active reports whether a form is being edited.
func (m Model) Active() bool {
	return m.form != nil
}

// Record returns the record the form was started for.
func (m Model) Record() model.Record {
	return m.record
}

// Update handles messages for the reply form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		out := SubmittedMsg{Record: m.record, Action: m.action, Text: strings.TrimSpace(m.fb.text)}
		m.form = nil
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the reply form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(m.record.GetTitle()) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func label(rec model.Record) string {
	if rec.GetKind() == model.KindUserFAQ {
		return "Answer"
	}
	return "Reply"
}

func existingText(rec model.Record) string {
	switch r := rec.(type) {
	case model.ContactMessage:
		return r.Reply
	case model.UserFAQ:
		return r.Answer
	default:
		return ""
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

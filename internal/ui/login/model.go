// Package login collects operator credentials and exchanges them for a
// session token.
package login

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/theme"
)

// loginTimeout bounds the credential exchange.
const loginTimeout = 15 * time.Second

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// SucceededMsg carries the token of a successful login.
type SucceededMsg struct {
	Email string
	Token string
}

// failedMsg is handled by the login model itself.
type failedMsg struct{ err error }

type formBindings struct {
	email    string
	password string
}

// Model is the Bubble Tea model for the login screen.
type Model struct {
	auth    Authenticator
	form    *huh.Form
	fb      *formBindings
	err     error
	working bool
	width   int
	height  int
}

// New creates a login screen. Call Init to build the form.
func New(auth Authenticator, width, height int) Model {
	return Model{
		auth:  auth,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init builds the form, keeping any email already entered.
func (m *Model) Init() tea.Cmd {
	m.fb.password = ""
	m.working = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("admin@example.org").
				Value(&m.fb.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter a valid email")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m.form.Init()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case failedMsg:
		m.err = msg.err
		cmd := m.Init()
		return m, cmd

	case SucceededMsg:
		m.err = nil
		m.working = false
		return m, nil
	}

	if m.form == nil || m.working {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.working = true
		return m, m.submit()
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) submit() tea.Cmd {
	auth := m.auth
	email := strings.TrimSpace(m.fb.email)
	password := m.fb.password
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		token, err := auth.Login(ctx, email, password)
		if err != nil {
			return failedMsg{err: err}
		}
		return SucceededMsg{Email: email, Token: token}
	}
}

// Err returns the last login failure.
func (m Model) Err() error {
	return m.err
}

// View renders the login screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Sign in to the certification console"))
	b.WriteString("\n\n")

	switch {
	case m.working:
		b.WriteString(theme.HelpStyle.Render("Signing in..."))
	case m.form != nil:
		b.WriteString(m.form.View())
	}

	if m.err != nil {
		msg := m.err.Error()
		if api.IsAuthError(m.err) {
			msg = "Invalid email or password."
		}
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(msg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 72 {
		w = 72
	}
	return w
}

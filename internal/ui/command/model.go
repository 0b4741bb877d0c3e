// Package command implements the ":" palette for actions that have no
// single-key binding or that the operator prefers to type.
package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	CmdGo      Name = "go"
	CmdRefresh Name = "refresh"
	CmdReadAll Name = "read-all"
	CmdClear   Name = "clear"
	CmdLogout  Name = "logout"
	CmdQuit    Name = "quit"
)

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Name Name
	// View is set for CmdGo.
	View model.ViewKey
}

// ErrorMsg is emitted when the typed text is not a command.
type ErrorMsg struct{ Err error }

// CloseMsg is emitted when the palette is dismissed.
type CloseMsg struct{}

// Parse turns palette input into a command.
func Parse(input string) (CommandMsg, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return CommandMsg{}, fmt.Errorf("empty command")
	}
	name := Name(strings.ToLower(fields[0]))
	switch name {
	case CmdRefresh, CmdReadAll, CmdClear, CmdLogout, CmdQuit:
		if len(fields) > 1 {
			return CommandMsg{}, fmt.Errorf("%s takes no arguments", name)
		}
		return CommandMsg{Name: name}, nil
	case "q":
		return CommandMsg{Name: CmdQuit}, nil
	case CmdGo:
		if len(fields) != 2 {
			return CommandMsg{}, fmt.Errorf("usage: go <view>")
		}
		view := model.ViewKey(strings.ToLower(fields[1]))
		if view != model.ViewDashboard && view != model.ViewNotifications {
			if _, ok := model.LookupView(view); !ok {
				return CommandMsg{}, fmt.Errorf("unknown view %q", fields[1])
			}
		}
		return CommandMsg{Name: CmdGo, View: view}, nil
	default:
		return CommandMsg{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func suggestions() []string {
	out := []string{
		string(CmdRefresh), string(CmdReadAll), string(CmdClear),
		string(CmdLogout), string(CmdQuit),
		"go " + string(model.ViewDashboard),
		"go " + string(model.ViewNotifications),
	}
	for _, v := range model.ListViews {
		out = append(out, "go "+string(v.Key))
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.input.Reset()
			return m, func() tea.Msg { return CloseMsg{} }
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, func() tea.Msg { return CloseMsg{} }
			}
			cmd, err := Parse(text)
			if err != nil {
				return m, func() tea.Msg { return ErrorMsg{Err: err} }
			}
			return m, func() tea.Msg { return cmd }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()
	hint := theme.HelpStyle.Render("tab completes · esc closes")

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the console.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Sub-tabs
	NextTab key.Binding
	PrevTab key.Binding

	// Views
	Dashboard        key.Binding
	Enquiries        key.Binding
	ContactMessages  key.Binding
	ReportedProducts key.Binding
	UserFAQs         key.Binding
	Notifications    key.Binding

	// Notification bell
	MarkAllRead key.Binding
	ClearAll    key.Binding

	// Record actions
	Approve key.Binding
	Reject  key.Binding

	// Session
	Logout key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "dashboard"),
		),
		Enquiries: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "enquiries"),
		),
		ContactMessages: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "contact messages"),
		),
		ReportedProducts: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "reported products"),
		),
		UserFAQs: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "user FAQs"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark all read"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear notifications"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "answer/resolve/accept"),
		),
		Reject: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "reject"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
	}
}

// Section is a titled group of bindings shown in the help overlay.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Sections groups the bindings by where they apply.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{"Move", []key.Binding{k.Up, k.Down, k.Select, k.Back}},
		{"Lists", []key.Binding{k.Search, k.NextTab, k.PrevTab, k.Refresh}},
		{"Records", []key.Binding{k.Approve, k.Reject}},
		{"Views", []key.Binding{k.Dashboard, k.Enquiries, k.ContactMessages, k.ReportedProducts, k.UserFAQs, k.Notifications}},
		{"Notifications", []key.Binding{k.MarkAllRead, k.ClearAll}},
		{"Console", []key.Binding{k.Help, k.Logout, k.Quit}},
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.NextTab, k.Search, k.Notifications, k.Help, k.Quit,
	}
}

// FullHelp returns every binding, one column per section.
func (k *KeyMap) FullHelp() [][]key.Binding {
	sections := k.Sections()
	out := make([][]key.Binding, len(sections))
	for i, s := range sections {
		out[i] = s.Bindings
	}
	return out
}

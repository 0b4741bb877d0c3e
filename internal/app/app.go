package app

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/dispatch"
	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/nav"
	"github.com/nhle/certconsole/internal/push"
	"github.com/nhle/certconsole/internal/session"
	appsync "github.com/nhle/certconsole/internal/sync"
	"github.com/nhle/certconsole/internal/theme"
	"github.com/nhle/certconsole/internal/ui"
	"github.com/nhle/certconsole/internal/ui/bell"
	"github.com/nhle/certconsole/internal/ui/command"
	"github.com/nhle/certconsole/internal/ui/dashboard"
	helpview "github.com/nhle/certconsole/internal/ui/help"
	"github.com/nhle/certconsole/internal/ui/listpage"
	"github.com/nhle/certconsole/internal/ui/login"
)

// overlay is a panel drawn instead of the current view without changing
// the navigation history.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
)

// Options configures the root model.
type Options struct {
	Session *session.Session
	// Auth performs logins. Defaults to the session's client.
	Auth login.Authenticator
	// Fetcher serves list pages and pending-item fetches. Defaults to the
	// session's client.
	Fetcher api.RecordFetcher
	// Updater serves status changes. Defaults to the session's client.
	Updater listpage.StatusUpdater
	// CountFetcher serves the dashboard poller. Defaults to Fetcher.
	CountFetcher api.RecordFetcher
	Config       *model.AppConfig
	Logger       zerolog.Logger
}

// Model is the root Bubble Tea model. It owns the navigator, mounts one
// page at a time, and routes push events and page results.
type Model struct {
	sess    *session.Session
	opts    Options
	cfg     *model.AppConfig
	log     zerolog.Logger
	keys    *keys.KeyMap
	nav     *nav.Navigator
	layout  ui.Layout
	ready   bool
	overlay overlay

	// nextMount numbers page mounts so results addressed to an earlier
	// mount can be recognised and dropped.
	nextMount uint64
	page      listpage.Model
	mounted   bool

	dashboard   dashboard.Model
	bellView    bell.Model
	loginView   login.Model
	helpView    helpview.Model
	commandView command.Model

	poller    *appsync.Poller
	conn      model.ConnectionState
	statusMsg string
	initCmd   tea.Cmd
}

// New creates the root model. If the session is already active (restored
// from a saved token) the console opens on the dashboard; otherwise on the
// login screen.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	client := opts.Session.Client()
	if opts.Auth == nil {
		opts.Auth = client
	}
	if opts.Fetcher == nil {
		opts.Fetcher = client
	}
	if opts.Updater == nil {
		opts.Updater = client
	}
	if opts.CountFetcher == nil {
		opts.CountFetcher = opts.Fetcher
	}

	k := keys.DefaultKeyMap()
	m := Model{
		sess:        opts.Session,
		opts:        opts,
		cfg:         cfg,
		log:         opts.Logger.With().Str("component", "app").Logger(),
		keys:        k,
		nav:         nav.New(model.ViewDashboard),
		layout:      ui.NewLayout(80, 24),
		dashboard:   dashboard.New(80, 22),
		bellView:    bell.New(nil, k, 80, 22),
		loginView:   login.New(opts.Auth, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
	}
	if m.sess.Active() {
		m.newPoller()
	} else {
		m.initCmd = m.loginView.Init()
	}
	return m
}

func (m *Model) newPoller() {
	m.poller = appsync.New(
		m.opts.CountFetcher,
		model.ListViews,
		m.cfg.Dashboard.RefreshInterval(),
		m.opts.Logger,
	)
}

// Init starts listening to the session, or shows the login form.
func (m Model) Init() tea.Cmd {
	if !m.sess.Active() {
		return m.initCmd
	}
	return m.listen()
}

// listen subscribes to the session's push events and count polls.
func (m Model) listen() tea.Cmd {
	var cmds []tea.Cmd
	if pm := m.sess.Push(); pm != nil {
		cmds = append(cmds, pm.WaitForEvent())
	}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Page-scoped results go to the page of the mount that issued them.
	if s, ok := msg.(listpage.Scoped); ok {
		if !m.mounted || s.MountID() != m.page.Mount() {
			m.log.Debug().Uint64("msg_mount", s.MountID()).Msg("dropping result for unmounted page")
			return m, nil
		}
		var cmd tea.Cmd
		m.page, cmd = m.page.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.dashboard.SetSize(w, h)
		m.bellView.SetSize(w, h)
		m.loginView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		if m.mounted {
			m.page.SetSize(w, h)
		}
		return m, nil

	case login.SucceededMsg:
		m.loginView, _ = m.loginView.Update(msg)
		return m, m.startSession(msg)

	case push.StateMsg:
		m.conn = msg.State
		m.dashboard.SetConnection(msg.State)
		if msg.Err != nil {
			m.log.Debug().Err(msg.Err).Str("state", msg.State.String()).Msg("push state")
		}
		return m, m.waitForPush()

	case push.NotificationMsg:
		return m, tea.Batch(m.onNotification(msg.Notification), m.waitForPush())

	case appsync.CountsMsg:
		m.dashboard.ApplyCounts(msg)
		if msg.AuthError {
			m.statusMsg = "session rejected by the server; log out and sign in again"
		}
		if m.poller == nil {
			return m, nil
		}
		return m, m.poller.WaitForNextResult()

	case dispatch.ClickedMsg:
		router := m.sess.Router()
		if router == nil {
			return m, nil
		}
		cmd := router.Route(msg.Notification, m.nav.CurrentView())
		m.bellView.Sync()
		return m, cmd

	case dispatch.NavigateMsg:
		m.overlay = overlayNone
		m.nav.Navigate(msg.View, msg.Pending)
		return m, m.mountCurrent()

	case dispatch.ItemArrivedMsg:
		if !m.mounted || m.page.Key() != msg.View {
			m.log.Debug().
				Str("view", string(msg.View)).
				Str("id", msg.Record.GetID()).
				Msg("dropping item-arrived signal; view not mounted")
			return m, nil
		}
		var cmd tea.Cmd
		m.page, cmd = m.page.Update(msg)
		return m, cmd

	case bell.CloseMsg:
		return m, m.back()

	case command.CommandMsg:
		m.overlay = overlayNone
		return m.executeCommand(msg)

	case command.ErrorMsg:
		m.overlay = overlayNone
		m.statusMsg = msg.Err.Error()
		return m, nil

	case command.CloseMsg:
		m.overlay = overlayNone
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// onNotification handles a notification the store accepted as new. When
// the operator is already on the target view the record is fetched and
// merged in place; otherwise it only waits in the bell.
func (m *Model) onNotification(n model.Notification) tea.Cmd {
	m.dashboard.RecordArrival(n)
	defer m.bellView.Sync()

	target, _, ok := model.Route(n.Type)
	if !ok || target != m.nav.CurrentView() {
		return nil
	}
	router := m.sess.Router()
	if router == nil {
		return nil
	}
	return router.Route(n, target)
}

func (m Model) waitForPush() tea.Cmd {
	if pm := m.sess.Push(); pm != nil {
		return pm.WaitForEvent()
	}
	return nil
}

func (m *Model) startSession(msg login.SucceededMsg) tea.Cmd {
	if err := m.sess.Start(msg.Token); err != nil {
		m.log.Error().Err(err).Msg("could not start session")
		m.statusMsg = err.Error()
		return m.loginView.Init()
	}
	m.log.Info().Str("email", msg.Email).Msg("signed in")
	m.statusMsg = ""
	m.nav.Reset(model.ViewDashboard)
	m.unmount()
	m.dashboard.Reset()
	m.newPoller()
	return m.listen()
}

func (m *Model) logout() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
	if err := m.sess.End(); err != nil {
		m.log.Warn().Err(err).Msg("could not forget session token")
	}
	m.nav.Reset(model.ViewDashboard)
	m.unmount()
	m.dashboard.Reset()
	m.bellView = bell.New(nil, m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
	m.conn = model.ConnectionClosed
	m.overlay = overlayNone
	m.statusMsg = "Logged out"
	return m.loginView.Init()
}

// shutdown stops background work before quitting. The saved token is kept
// so the next run resumes the session.
func (m *Model) shutdown() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	if pm := m.sess.Push(); pm != nil {
		pm.Close()
	}
	return tea.Quit
}

func (m *Model) unmount() {
	m.mounted = false
	m.page = listpage.Model{}
}

// mountCurrent builds the view for the active navigation entry. The
// entry's transient state is taken (and so cleared) before any fetch is
// issued.
func (m *Model) mountCurrent() tea.Cmd {
	view := m.nav.CurrentView()
	pending, hasPending := m.nav.TakePending()
	m.unmount()

	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	switch view {
	case model.ViewDashboard:
		if m.poller != nil {
			m.poller.RefreshAll()
		}
		return nil
	case model.ViewNotifications:
		if store := m.sess.Notifications(); store != nil {
			m.bellView = bell.New(store, m.keys, w, h)
		}
		return nil
	}

	vs, ok := model.LookupView(view)
	if !ok {
		m.log.Warn().Str("view", string(view)).Msg("unknown view")
		return nil
	}
	var p *model.PendingItem
	if hasPending {
		p = &pending
	}
	m.nextMount++
	m.page = listpage.New(vs, m.nextMount, p, listpage.Deps{
		Fetcher:   m.opts.Fetcher,
		Updater:   m.opts.Updater,
		Keys:      m.keys,
		PageSize:  m.cfg.List.PageSize,
		Proximity: m.cfg.List.ScrollProximity,
		Logger:    m.opts.Logger,
	}, w, h)
	m.mounted = true
	return m.page.Init()
}

// open navigates to view. Opening the current view again reloads it,
// which drops any transient state it was entered with.
func (m *Model) open(view model.ViewKey) tea.Cmd {
	m.overlay = overlayNone
	if view == m.nav.CurrentView() {
		m.nav.Reload()
	} else {
		m.nav.Navigate(view, nil)
	}
	return m.mountCurrent()
}

func (m *Model) back() tea.Cmd {
	if !m.nav.Back() {
		return nil
	}
	return m.mountCurrent()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, m.shutdown()
	}
	m.statusMsg = ""
	if !m.sess.Active() {
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	switch m.overlay {
	case overlayCommand:
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	case overlayHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.overlay = overlayNone
		}
		return m, nil
	}

	// A page taking text input or showing a detail panel gets the keys.
	if m.mounted && (m.page.Capturing() || m.page.ShowingDetail()) {
		var cmd tea.Cmd
		m.page, cmd = m.page.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.shutdown()
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil
	case msg.String() == ":":
		m.overlay = overlayCommand
		return m, m.commandView.Focus()
	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.Dashboard):
		return m, m.open(model.ViewDashboard)
	case key.Matches(msg, m.keys.Enquiries):
		return m, m.open(model.ViewEnquiries)
	case key.Matches(msg, m.keys.ContactMessages):
		return m, m.open(model.ViewContactMessages)
	case key.Matches(msg, m.keys.ReportedProducts):
		return m, m.open(model.ViewReportedProducts)
	case key.Matches(msg, m.keys.UserFAQs):
		return m, m.open(model.ViewUserFAQs)
	case key.Matches(msg, m.keys.Notifications):
		return m, m.open(model.ViewNotifications)
	case key.Matches(msg, m.keys.Back) && m.nav.CurrentView() != model.ViewNotifications:
		return m, m.back()
	case key.Matches(msg, m.keys.Refresh) && m.nav.CurrentView() == model.ViewDashboard:
		if m.poller != nil {
			m.poller.RefreshAll()
		}
		return m, nil
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if !m.sess.Active() {
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}
	if m.overlay == overlayCommand {
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	}

	switch {
	case m.mounted:
		m.page, cmd = m.page.Update(msg)
	case m.nav.CurrentView() == model.ViewNotifications:
		m.bellView, cmd = m.bellView.Update(msg)
	}
	return m, cmd
}

// executeCommand runs a command palette command.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case command.CmdGo:
		return m, m.open(c.View)
	case command.CmdRefresh:
		if m.poller != nil {
			m.poller.RefreshAll()
		}
		if m.mounted {
			return m, m.open(m.nav.CurrentView())
		}
		return m, nil
	case command.CmdReadAll:
		if s := m.sess.Notifications(); s != nil {
			s.MarkAllRead()
			m.bellView.Sync()
		}
		return m, nil
	case command.CmdClear:
		if s := m.sess.Notifications(); s != nil {
			s.ClearAll()
			m.bellView.Sync()
		}
		return m, nil
	case command.CmdLogout:
		return m, m.logout()
	case command.CmdQuit:
		return m, m.shutdown()
	}
	return m, nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.Header(m.headerTitle(), m.headerIndicators()...)
	statusBar := m.layout.StatusBar(m.keyHints(), m.statusMsg != "")

	return m.layout.Frame(header, m.renderContent(), statusBar)
}

func (m Model) headerTitle() string {
	title := "Certification Console"
	if !m.sess.Active() {
		return title
	}
	switch view := m.nav.CurrentView(); view {
	case model.ViewDashboard:
		return title + " · Dashboard"
	case model.ViewNotifications:
		return title + " · Notifications"
	default:
		if vs, ok := model.LookupView(view); ok {
			return title + " · " + vs.Title
		}
	}
	return title
}

// headerIndicators renders the connection indicator and the unread badge.
func (m Model) headerIndicators() []string {
	if !m.sess.Active() {
		return []string{"signed out"}
	}
	out := []string{theme.ConnectionStyle(m.conn).Render("● " + m.conn.String())}
	if n := m.Unread(); n > 0 {
		out = append(out, theme.UnreadStyle.Render(strconv.Itoa(n)))
	}
	return out
}

// Unread returns the session's unread notification count.
func (m Model) Unread() int {
	if s := m.sess.Notifications(); s != nil {
		return s.UnreadCount()
	}
	return 0
}

// Page returns the mounted list page, if any.
func (m Model) Page() (listpage.Model, bool) {
	return m.page, m.mounted
}

// CurrentView returns the active navigation entry's view.
func (m Model) CurrentView() model.ViewKey {
	return m.nav.CurrentView()
}

// Navigator exposes the navigation history.
func (m Model) Navigator() *nav.Navigator {
	return m.nav
}

func (m Model) renderContent() string {
	if !m.sess.Active() {
		return m.loginView.View()
	}
	switch m.overlay {
	case overlayHelp:
		return m.helpView.View()
	case overlayCommand:
		return m.commandView.View()
	}
	switch {
	case m.mounted:
		return m.page.View()
	case m.nav.CurrentView() == model.ViewNotifications:
		return m.bellView.View()
	default:
		return m.dashboard.View()
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}
	if !m.sess.Active() {
		return "enter submit | ctrl+c quit"
	}
	switch {
	case m.overlay == overlayHelp:
		return "? close help | esc back"
	case m.overlay == overlayCommand:
		return "enter execute | esc close"
	case m.mounted && m.page.ShowingDetail():
		return "esc back | a approve | d reject | j/k scroll"
	case m.mounted:
		return "/ search | tab next tab | r refresh | enter open | esc back | ? help"
	case m.nav.CurrentView() == model.ViewNotifications:
		return "enter open | m mark all read | x clear | esc back"
	default:
		return "1-4 views | n notifications | : command | L logout | q quit"
	}
}

// Package listpage is the mounted page of a list-bearing view. It feeds
// the view's reconciler from paginated fetches, pending-item hand-offs and
// item-arrived signals, and renders the reconciled list.
package listpage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/dispatch"
	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/reconcile"
	"github.com/nhle/certconsole/internal/theme"
	"github.com/nhle/certconsole/internal/ui/detail"
	"github.com/nhle/certconsole/internal/ui/replyform"
)

// fetchTimeout is the maximum time allowed for a single fetch.
const fetchTimeout = 30 * time.Second

// Scoped is implemented by messages addressed to one mounted page. A page
// ignores scoped messages from an earlier mount.
type Scoped interface {
	MountID() uint64
}

// PageLoadedMsg carries the result of a paginated fetch.
type PageLoadedMsg struct {
	Mount uint64
	Req   reconcile.PageRequest
	Page  *api.ListPage
	Err   error
}

// MountID implements Scoped.
func (m PageLoadedMsg) MountID() uint64 { return m.Mount }

// RecordLoadedMsg carries the record named by a pending-item descriptor.
type RecordLoadedMsg struct {
	Mount   uint64
	Pending model.PendingItem
	Record  model.Record
	Err     error
}

// MountID implements Scoped.
func (m RecordLoadedMsg) MountID() uint64 { return m.Mount }

// StatusUpdatedMsg carries the result of a status change.
type StatusUpdatedMsg struct {
	Mount  uint64
	Record model.Record
	Err    error
}

// MountID implements Scoped.
func (m StatusUpdatedMsg) MountID() uint64 { return m.Mount }

// StatusUpdater changes a record's status on the backend.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, kind model.RecordKind, id, status, reply string) (model.Record, error)
}

// Deps are the collaborators shared by every page.
type Deps struct {
	Fetcher api.RecordFetcher
	// Updater may be nil, in which case status actions are unavailable.
	Updater   StatusUpdater
	Keys      *keys.KeyMap
	PageSize  int
	Proximity int
	Logger    zerolog.Logger
}

// Model is one mounted list page.
type Model struct {
	vs    model.ViewSpec
	mount uint64
	deps  Deps
	log   zerolog.Logger

	rec     *reconcile.Reconciler[model.Record]
	pending *model.PendingItem
	jumpTo  string

	list        list.Model
	spinner     spinner.Model
	searchMode  bool
	searchInput textinput.Model
	detail      detail.Model
	showDetail  bool
	reply       replyform.Model
	notice      string
	width       int
	height      int
}

// New mounts a page for vs. pending is the descriptor taken from the
// navigation entry, or nil; a descriptor for another record kind is
// ignored.
func New(vs model.ViewSpec, mount uint64, pending *model.PendingItem, deps Deps, width, height int) Model {
	log := deps.Logger.With().
		Str("view", string(vs.Key)).
		Uint64("mount", mount).
		Logger()

	var rec *reconcile.Reconciler[model.Record]
	if vs.Tabbed() {
		tabs := make([]string, len(vs.Tabs))
		for i, t := range vs.Tabs {
			tabs[i] = t.Key
		}
		rec = reconcile.New(tabs, func(r model.Record) string {
			return vs.TabFor(r.GetStatus())
		})
	} else {
		rec = reconcile.New[model.Record](nil, nil)
	}

	if pending != nil && (pending.ItemType != vs.Kind || pending.ItemID == "") {
		log.Debug().
			Str("item_type", string(pending.ItemType)).
			Str("item_id", pending.ItemID).
			Msg("ignoring pending item for another view")
		pending = nil
	}

	l := list.New([]list.Item{}, ItemDelegate{}, width, max(height-3, 1))
	l.Title = vs.Title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search " + strings.ToLower(vs.Title) + "..."
	si.Prompt = "/ "
	si.Width = width - 4

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		vs:          vs,
		mount:       mount,
		deps:        deps,
		log:         log,
		rec:         rec,
		pending:     pending,
		list:        l,
		spinner:     sp,
		searchInput: si,
		detail:      detail.New(deps.Keys, width, height),
		reply:       replyform.New(width, height),
		width:       width,
		height:      height,
	}
}

// Init issues the mount fetches: the pending record, if any, and page 1.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.pending != nil {
		cmds = append(cmds, m.fetchRecord(*m.pending))
	}
	if req, ok := m.rec.Start(); ok {
		cmds = append(cmds, m.fetchPage(req))
	}
	cmds = append(cmds, m.spinner.Tick)
	return tea.Batch(cmds...)
}

// Update handles messages for the page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if s, ok := msg.(Scoped); ok && s.MountID() != m.mount {
		m.log.Debug().Uint64("msg_mount", s.MountID()).Msg("dropping result for unmounted page")
		return m, nil
	}

	switch msg := msg.(type) {
	case PageLoadedMsg:
		return m.applyPage(msg)

	case RecordLoadedMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Str("id", msg.Pending.ItemID).Msg("fetching pending item failed")
			return m, nil
		}
		req, fetch, ok := m.rec.MergePending(msg.Record)
		if !ok {
			m.log.Debug().Str("id", msg.Record.GetID()).Str("status", msg.Record.GetStatus()).
				Msg("pending record matches no tab")
			return m, nil
		}
		m.jumpTo = msg.Record.GetID()
		cmd := m.syncList()
		if fetch {
			return m, tea.Batch(cmd, m.fetchPage(req))
		}
		return m, cmd

	case dispatch.ItemArrivedMsg:
		if msg.View != m.vs.Key {
			return m, nil
		}
		a, ok := m.rec.Merge(msg.Record)
		if !ok {
			m.log.Debug().Str("id", msg.Record.GetID()).Str("status", msg.Record.GetStatus()).
				Msg("arrived record matches no tab")
		} else if !a.Visible {
			m.log.Debug().Str("id", msg.Record.GetID()).Str("tab", a.Tab).
				Msg("arrived record cached for inactive tab")
		}
		m.refreshDetail(msg.Record)
		return m, m.syncList()

	case StatusUpdatedMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Msg("status update failed")
			m.notice = "update failed: " + msg.Err.Error()
			return m, nil
		}
		m.rec.Merge(msg.Record)
		m.refreshDetail(msg.Record)
		m.notice = fmt.Sprintf("%s marked %s", msg.Record.GetTitle(), msg.Record.GetStatus())
		return m, m.syncList()

	case replyform.SubmittedMsg:
		status, _, ok := model.Transition(msg.Record.GetKind(), msg.Action)
		if !ok {
			return m, nil
		}
		return m, m.updateStatus(msg.Record, status, msg.Text)

	case replyform.CancelMsg:
		return m, nil

	case detail.BackMsg:
		m.showDetail = false
		return m, nil

	case detail.ActionMsg:
		return m.startAction(msg.Record, msg.Action)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case m.reply.Active():
			var cmd tea.Cmd
			m.reply, cmd = m.reply.Update(msg)
			return m, cmd
		case m.showDetail:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		case m.searchMode:
			return m.handleSearchKeys(msg)
		default:
			return m.handleNormalKeys(msg)
		}
	}

	if m.reply.Active() {
		var cmd tea.Cmd
		m.reply, cmd = m.reply.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) applyPage(msg PageLoadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.rec.FailPage(msg.Req, msg.Err)
		m.log.Warn().Err(msg.Err).Int("page", msg.Req.Page).Str("tab", msg.Req.Tab).Msg("page fetch failed")
		return m, nil
	}
	p := msg.Page
	if !m.rec.ApplyPage(msg.Req, p.Records, p.Pagination.TotalPages, p.Pagination.Total) {
		m.log.Debug().Int("page", msg.Req.Page).Str("tab", msg.Req.Tab).Msg("discarding stale page")
		return m, nil
	}
	return m, m.syncList()
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		return m.search(strings.TrimSpace(m.searchInput.Value()))

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		return m.search("")
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) search(q string) (Model, tea.Cmd) {
	req, ok := m.rec.SetSearch(q)
	if !ok {
		return m, nil
	}
	return m, tea.Batch(m.syncList(), m.fetchPage(req))
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.deps.Keys
	switch {
	case key.Matches(msg, k.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.rec.Search())
		return m, m.searchInput.Focus()

	case key.Matches(msg, k.NextTab):
		return m.cycleTab(1)

	case key.Matches(msg, k.PrevTab):
		return m.cycleTab(-1)

	case key.Matches(msg, k.Refresh):
		m.notice = ""
		req, ok := m.rec.Refresh()
		cmd := m.syncList()
		if ok {
			return m, tea.Batch(cmd, m.fetchPage(req))
		}
		return m, cmd

	case key.Matches(msg, k.Select):
		rec, ok := m.SelectedRecord()
		if !ok {
			return m, nil
		}
		m.detail.SetRecord(rec)
		m.showDetail = true
		return m, nil

	case key.Matches(msg, k.Approve):
		if rec, ok := m.SelectedRecord(); ok {
			return m.startAction(rec, model.ActionApprove)
		}
		return m, nil

	case key.Matches(msg, k.Reject):
		if rec, ok := m.SelectedRecord(); ok {
			return m.startAction(rec, model.ActionReject)
		}
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if req, ok := m.rec.LoadMore(m.list.Index(), m.deps.Proximity); ok {
		return m, tea.Batch(cmd, m.fetchPage(req))
	}
	return m, cmd
}

func (m Model) cycleTab(delta int) (Model, tea.Cmd) {
	if !m.vs.Tabbed() {
		return m, nil
	}
	n := len(m.vs.Tabs)
	i := (m.vs.TabIndex(m.rec.ActiveTab()) + delta + n) % n
	return m.SwitchTab(m.vs.Tabs[i].Key)
}

// SwitchTab activates the sub-tab with the given key.
func (m Model) SwitchTab(tab string) (Model, tea.Cmd) {
	req, fetch := m.rec.SwitchTab(tab)
	m.list.Select(0)
	cmd := m.syncList()
	if fetch {
		return m, tea.Batch(cmd, m.fetchPage(req))
	}
	return m, cmd
}

func (m Model) startAction(rec model.Record, action model.Action) (Model, tea.Cmd) {
	status, needsReply, ok := model.Transition(rec.GetKind(), action)
	if !ok || rec.GetStatus() == status {
		return m, nil
	}
	if m.deps.Updater == nil {
		m.notice = "status changes are unavailable"
		return m, nil
	}
	if needsReply {
		m.reply.SetSize(m.width, m.height)
		return m, m.reply.Start(rec, action)
	}
	return m, m.updateStatus(rec, status, "")
}

// refreshDetail updates the open detail panel if it shows rec.
func (m *Model) refreshDetail(rec model.Record) {
	cur := m.detail.Record()
	if cur != nil && cur.GetID() == rec.GetID() {
		m.detail.SetRecord(rec)
	}
}

// syncList copies the reconciled items into the list widget, keeping the
// cursor on the same record where possible.
func (m *Model) syncList() tea.Cmd {
	want := m.jumpTo
	if want == "" {
		if it, ok := m.list.SelectedItem().(RecordItem); ok {
			want = it.Record.GetID()
		}
	}

	recs := m.rec.Items()
	items := make([]list.Item, len(recs))
	idx := -1
	for i, r := range recs {
		items[i] = RecordItem{Record: r, Highlighted: r.GetID() == m.rec.Selected()}
		if r.GetID() == want {
			idx = i
		}
	}
	cmd := m.list.SetItems(items)
	if idx >= 0 {
		m.list.Select(idx)
		if want == m.jumpTo {
			m.jumpTo = ""
		}
	}
	return cmd
}

func (m Model) fetchPage(req reconcile.PageRequest) tea.Cmd {
	f := m.deps.Fetcher
	kind := m.vs.Kind
	mount := m.mount
	q := api.ListQuery{
		Page:   req.Page,
		Limit:  m.deps.PageSize,
		Status: m.vs.StatusFilter(req.Tab),
		Search: req.Search,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		page, err := f.ListRecords(ctx, kind, q)
		return PageLoadedMsg{Mount: mount, Req: req, Page: page, Err: err}
	}
}

func (m Model) fetchRecord(p model.PendingItem) tea.Cmd {
	f := m.deps.Fetcher
	mount := m.mount
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rec, err := f.GetRecord(ctx, p.ItemType, p.ItemID)
		return RecordLoadedMsg{Mount: mount, Pending: p, Record: rec, Err: err}
	}
}

func (m Model) updateStatus(rec model.Record, status, reply string) tea.Cmd {
	u := m.deps.Updater
	mount := m.mount
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		updated, err := u.UpdateStatus(ctx, rec.GetKind(), rec.GetID(), status, reply)
		return StatusUpdatedMsg{Mount: mount, Record: updated, Err: err}
	}
}

// View renders the page.
func (m Model) View() string {
	if m.reply.Active() {
		return m.reply.View()
	}
	if m.showDetail {
		return m.detail.View()
	}

	var rows []string
	if m.vs.Tabbed() {
		rows = append(rows, m.renderTabs())
	}
	if m.searchMode {
		rows = append(rows, lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View()))
	} else if q := m.rec.Search(); q != "" {
		rows = append(rows, theme.HelpStyle.Render("  filtered by \""+q+"\" (esc in search to clear)"))
	}

	switch {
	case !m.rec.Loaded() && m.rec.Loading():
		rows = append(rows, lipgloss.NewStyle().Padding(1, 2).
			Render(m.spinner.View()+" Loading "+strings.ToLower(m.vs.Title)+"..."))
	case len(m.rec.Items()) == 0:
		rows = append(rows, m.renderEmptyState())
	default:
		rows = append(rows, m.list.View())
	}

	rows = append(rows, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderTabs() string {
	var parts []string
	for _, t := range m.vs.Tabs {
		label := t.Label
		if t.Key == m.rec.ActiveTab() {
			if m.rec.Loaded() {
				label = fmt.Sprintf("%s (%d)", label, m.rec.Pagination().TotalItems)
			}
			parts = append(parts, theme.ActiveTabStyle.Render(label))
			continue
		}
		parts = append(parts, theme.TabStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderFooter() string {
	p := m.rec.Pagination()
	parts := []string{}
	if m.rec.Loaded() {
		parts = append(parts, fmt.Sprintf("page %d of %d | %d items", p.CurrentPage, max(p.TotalPages, 1), p.TotalItems))
	}
	if m.rec.Loaded() && m.rec.Loading() {
		parts = append(parts, m.spinner.View()+" loading more")
	}
	if err := m.rec.Err(); err != nil {
		parts = append(parts, theme.ErrorStyle.Render("load failed: "+err.Error()+" (r to retry)"))
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	return theme.HelpStyle.Render("  " + strings.Join(parts, " | "))
}

// renderEmptyState shows guidance text when the list is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.height-3, 1)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.rec.Search() != "" {
		return style.Render("No matching records.\nTry a different search.")
	}
	if m.rec.Err() != nil {
		return style.Render("Could not load records.\nPress r to retry.")
	}
	return style.Render("Nothing here yet.\nNew submissions appear as they arrive.")
}

// SetSize updates the page dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-3, 1))
	m.searchInput.Width = width - 4
	m.detail.SetSize(width, height)
	m.reply.SetSize(width, height)
}

// Key returns the view this page is mounted for.
func (m Model) Key() model.ViewKey { return m.vs.Key }

// Mount returns the mount id.
func (m Model) Mount() uint64 { return m.mount }

// Items returns the visible records.
func (m Model) Items() []model.Record { return m.rec.Items() }

// Pagination returns the visible pagination state.
func (m Model) Pagination() reconcile.Pagination { return m.rec.Pagination() }

// ActiveTab returns the visible sub-tab key ("" for untabbed views).
func (m Model) ActiveTab() string { return m.rec.ActiveTab() }

// Highlighted returns the id of the record a notification pointed at.
func (m Model) Highlighted() string { return m.rec.Selected() }

// Loading reports whether a page fetch is in flight.
func (m Model) Loading() bool { return m.rec.Loading() }

// Err returns the last paginated fetch error.
func (m Model) Err() error { return m.rec.Err() }

// SelectedRecord returns the record under the cursor.
func (m Model) SelectedRecord() (model.Record, bool) {
	it, ok := m.list.SelectedItem().(RecordItem)
	if !ok {
		return nil, false
	}
	return it.Record, true
}

// Capturing reports whether the page is taking raw text input, in which
// case global shortcuts must not be intercepted.
func (m Model) Capturing() bool {
	return m.searchMode || m.reply.Active()
}

// ShowingDetail reports whether the detail panel is open.
func (m Model) ShowingDetail() bool { return m.showDetail }

// Package reconcile merges paginated fetch results, live arrivals and
// pending-item hand-offs into the single ordered list a view renders.
//
// A Reconciler is owned by exactly one mounted view and is not safe for
// concurrent use; all calls happen on the UI event loop. Every merge is
// keyed by record id, so the final set of items does not depend on the
// order in which asynchronous results resolve.
package reconcile

// Item is anything with a stable identity.
type Item interface {
	GetID() string
}

// Pagination is the visible pagination state of a list.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
}

// HasMore reports whether pages remain beyond CurrentPage.
func (p Pagination) HasMore() bool {
	return p.CurrentPage < p.TotalPages
}

// PageRequest identifies a page fetch issued by a Reconciler. The caller
// performs the fetch and hands the request back with the result.
type PageRequest struct {
	Tab        string
	Search     string
	Page       int
	Generation uint64
}

// Reset reports whether the result replaces the list rather than extending it.
func (r PageRequest) Reset() bool {
	return r.Page == 1
}

// slot is the cached list of one sub-tab under the current search.
type slot[T Item] struct {
	items      []T
	pagination Pagination
	// serverTotal is the total last reported by the list endpoint.
	serverTotal int
	// live holds ids merged out of band that no fetched page has
	// confirmed yet. They survive a page-1 replace. The value is the list
	// total just before the arrival; the id adds one to TotalItems until
	// the server total passes it. pinned ids are already counted by the
	// server.
	live     map[string]int
	loaded   bool
	inflight int
	gen      uint64
	err      error
}

func newSlot[T Item](gen uint64) *slot[T] {
	return &slot[T]{live: make(map[string]int), gen: gen}
}

const pinned = -1

func (s *slot[T]) indexOf(id string) int {
	for i, it := range s.items {
		if it.GetID() == id {
			return i
		}
	}
	return -1
}

func (s *slot[T]) counted() int {
	n := 0
	for _, base := range s.live {
		if base != pinned {
			n++
		}
	}
	return n
}

// settle stops counting live ids the server total now includes.
func (s *slot[T]) settle() {
	for id, base := range s.live {
		if base != pinned && s.serverTotal > base {
			s.live[id] = pinned
		}
	}
}

// rebase restarts the thresholds of counted arrivals that survived a page-1
// replace. Page 1 is the newest records, so the server total does not
// include any of them yet.
func (s *slot[T]) rebase(kept []T, total int) {
	n := total
	for i := len(kept) - 1; i >= 0; i-- {
		id := kept[i].GetID()
		if s.live[id] != pinned {
			s.live[id] = n
			n++
		}
	}
}

// lowerAfter shifts down the thresholds of counted ids that arrived after
// the one at base. Pass pinned when a server-counted record left the slot.
func (s *slot[T]) lowerAfter(base int) {
	for id, b := range s.live {
		if b != pinned && b > base && b > 0 {
			s.live[id] = b - 1
		}
	}
}

func (s *slot[T]) recount() {
	s.pagination.TotalItems = s.serverTotal + s.counted()
	if s.pagination.TotalItems < len(s.items) {
		s.pagination.TotalItems = len(s.items)
	}
}

// Reconciler owns the visible list of one view and a cache slot per sub-tab.
type Reconciler[T Item] struct {
	tabs     []string
	tabOf    func(T) string
	active   string
	search   string
	slots    map[string]*slot[T]
	gen      uint64
	selected string
}

// New creates a Reconciler. tabs lists the sub-tab keys; pass nil for an
// untabbed view. tabOf maps a record to its sub-tab and may be nil for
// untabbed views. The first tab is active.
func New[T Item](tabs []string, tabOf func(T) string) *Reconciler[T] {
	if len(tabs) == 0 {
		tabs = []string{""}
		tabOf = nil
	}
	r := &Reconciler[T]{
		tabs:   append([]string(nil), tabs...),
		tabOf:  tabOf,
		active: tabs[0],
		slots:  make(map[string]*slot[T], len(tabs)),
	}
	for _, t := range r.tabs {
		r.slots[t] = newSlot[T](r.nextGen())
	}
	return r
}

func (r *Reconciler[T]) nextGen() uint64 {
	r.gen++
	return r.gen
}

func (r *Reconciler[T]) tab(rec T) (string, bool) {
	if r.tabOf == nil {
		return r.tabs[0], true
	}
	t := r.tabOf(rec)
	_, ok := r.slots[t]
	return t, ok
}

func (r *Reconciler[T]) activeSlot() *slot[T] {
	return r.slots[r.active]
}

// Items returns the visible list. The slice must not be modified.
func (r *Reconciler[T]) Items() []T {
	return r.activeSlot().items
}

// Pagination returns the visible pagination state.
func (r *Reconciler[T]) Pagination() Pagination {
	return r.activeSlot().pagination
}

// ActiveTab returns the key of the visible sub-tab.
func (r *Reconciler[T]) ActiveTab() string {
	return r.active
}

// Search returns the active search filter.
func (r *Reconciler[T]) Search() string {
	return r.search
}

// Loaded reports whether the visible tab has received at least one page.
func (r *Reconciler[T]) Loaded() bool {
	return r.activeSlot().loaded
}

// Loading reports whether a page fetch for the visible tab is in flight.
func (r *Reconciler[T]) Loading() bool {
	return r.activeSlot().inflight != 0
}

// Err returns the error of the last failed page fetch for the visible tab.
func (r *Reconciler[T]) Err() error {
	return r.activeSlot().err
}

// Selected returns the id of the highlighted record, if any.
func (r *Reconciler[T]) Selected() string {
	return r.selected
}

// Select highlights id.
func (r *Reconciler[T]) Select(id string) {
	r.selected = id
}

// Start requests page 1 of the visible tab unless it is already loaded or
// loading. Call it on mount.
func (r *Reconciler[T]) Start() (PageRequest, bool) {
	s := r.activeSlot()
	if s.loaded || s.inflight != 0 {
		return PageRequest{}, false
	}
	return r.request(s, 1)
}

func (r *Reconciler[T]) request(s *slot[T], page int) (PageRequest, bool) {
	if s.inflight != 0 {
		return PageRequest{}, false
	}
	s.inflight = page
	return PageRequest{
		Tab:        r.active,
		Search:     r.search,
		Page:       page,
		Generation: s.gen,
	}, true
}

// LoadMore is the infinite-scroll trigger. It requests the next page when
// the cursor is within proximity rows of the end of the visible list, more
// pages remain, and no fetch is in flight.
func (r *Reconciler[T]) LoadMore(cursor, proximity int) (PageRequest, bool) {
	s := r.activeSlot()
	if !s.loaded || s.inflight != 0 || !s.pagination.HasMore() {
		return PageRequest{}, false
	}
	if cursor < len(s.items)-1-proximity {
		return PageRequest{}, false
	}
	return r.request(s, s.pagination.CurrentPage+1)
}

// Refresh requests page 1 of the visible tab again. Any fetch in flight is
// superseded. The current list stays visible until the new page replaces
// it, and survives if the fetch fails.
func (r *Reconciler[T]) Refresh() (PageRequest, bool) {
	s := r.activeSlot()
	s.gen = r.nextGen()
	s.inflight = 0
	return r.request(s, 1)
}

// SwitchTab makes tab visible. The outgoing tab keeps its list and
// pagination; the incoming tab is hydrated from its slot, and page 1 is
// requested only if it has never loaded.
func (r *Reconciler[T]) SwitchTab(tab string) (PageRequest, bool) {
	if _, ok := r.slots[tab]; !ok || tab == r.active {
		return PageRequest{}, false
	}
	r.active = tab
	r.selected = ""
	return r.Start()
}

// SetSearch changes the filter. Every tab's cache is discarded because it
// was loaded under the old filter, and page 1 of the visible tab is
// requested.
func (r *Reconciler[T]) SetSearch(q string) (PageRequest, bool) {
	if q == r.search {
		return PageRequest{}, false
	}
	r.search = q
	r.selected = ""
	for _, t := range r.tabs {
		r.slots[t] = newSlot[T](r.nextGen())
	}
	return r.request(r.activeSlot(), 1)
}

// ApplyPage merges a fetched page. Results for a slot that has since been
// reset (search change, refresh) are discarded; the return value reports
// whether the page was applied. Page 1 replaces the list, keeping live
// arrivals the page does not contain; later pages append.
func (r *Reconciler[T]) ApplyPage(req PageRequest, records []T, totalPages, total int) bool {
	s, ok := r.slots[req.Tab]
	if !ok || s.gen != req.Generation || req.Search != r.search {
		return false
	}
	if s.inflight == req.Page {
		s.inflight = 0
	}
	s.err = nil

	if req.Reset() {
		fresh := make([]T, 0, len(records)+len(s.live))
		seen := make(map[string]int, len(records))
		for _, rec := range records {
			id := rec.GetID()
			if i, dup := seen[id]; dup {
				fresh[i] = rec
				continue
			}
			seen[id] = len(fresh)
			fresh = append(fresh, rec)
		}

		var kept []T
		for _, it := range s.items {
			id := it.GetID()
			if _, isLive := s.live[id]; !isLive {
				continue
			}
			if _, inPage := seen[id]; inPage {
				delete(s.live, id)
				continue
			}
			kept = append(kept, it)
		}
		s.items = append(kept, fresh...)
		s.pagination.CurrentPage = 1
		s.rebase(kept, total)
	} else {
		for _, rec := range records {
			id := rec.GetID()
			delete(s.live, id)
			if i := s.indexOf(id); i >= 0 {
				s.items[i] = rec
				continue
			}
			s.items = append(s.items, rec)
		}
		if req.Page > s.pagination.CurrentPage {
			s.pagination.CurrentPage = req.Page
		}
	}

	s.pagination.TotalPages = totalPages
	s.serverTotal = total
	s.loaded = true
	s.settle()
	s.recount()
	return true
}

// FailPage records a failed fetch. The list and pagination are untouched.
func (r *Reconciler[T]) FailPage(req PageRequest, err error) {
	s, ok := r.slots[req.Tab]
	if !ok || s.gen != req.Generation {
		return
	}
	if s.inflight == req.Page {
		s.inflight = 0
	}
	s.err = err
}

// Arrival describes where a merged record landed.
type Arrival struct {
	// Tab is the sub-tab the record belongs to.
	Tab string
	// Visible is true when that tab is the visible one.
	Visible bool
	// New is true when the record was not already listed there.
	New bool
}

// Merge applies a full record delivered out of band (a live arrival or an
// updated record). An existing entry with the same id is replaced in place;
// a new one is inserted at the front of its tab. A record whose status no
// longer matches a tab is removed from that tab. Records whose status maps
// to no known tab are dropped and ok is false.
func (r *Reconciler[T]) Merge(rec T) (Arrival, bool) {
	tab, ok := r.tab(rec)
	if !ok {
		r.removeFromOthers(rec.GetID(), "")
		return Arrival{}, false
	}
	r.removeFromOthers(rec.GetID(), tab)

	s := r.slots[tab]
	a := Arrival{Tab: tab, Visible: tab == r.active}
	if i := s.indexOf(rec.GetID()); i >= 0 {
		s.items[i] = rec
		return a, true
	}

	s.live[rec.GetID()] = s.pagination.TotalItems
	s.items = append([]T{rec}, s.items...)
	s.recount()
	a.New = true
	return a, true
}

// MergePending applies the record named by a pending-item descriptor and
// highlights it. If the record belongs to another tab, that tab becomes
// visible; fetch is true when it still needs loading. The record already
// exists server side, so it is kept across a page-1 replace without adding
// to TotalItems. ok is false when the record's status maps to no tab.
func (r *Reconciler[T]) MergePending(rec T) (req PageRequest, fetch, ok bool) {
	tab, ok := r.tab(rec)
	if !ok {
		return PageRequest{}, false, false
	}
	if tab != r.active {
		req, fetch = r.SwitchTab(tab)
	}
	if a, _ := r.Merge(rec); a.New {
		s := r.slots[tab]
		s.live[rec.GetID()] = pinned
		s.recount()
	}
	r.selected = rec.GetID()
	return req, fetch, true
}

func (r *Reconciler[T]) removeFromOthers(id, keep string) {
	for t, s := range r.slots {
		if t == keep {
			continue
		}
		i := s.indexOf(id)
		if i < 0 {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		base, isLive := s.live[id]
		delete(s.live, id)
		if !isLive || base == pinned {
			if s.serverTotal > 0 {
				s.serverTotal--
			}
			base = pinned
		}
		s.lowerAfter(base)
		s.recount()
	}
}

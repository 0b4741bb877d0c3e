// Package nav is the console's navigation layer: a history of views where
// each entry may carry transient, single-use state.
package nav

import "github.com/nhle/certconsole/internal/model"

// Entry is one position in the navigation history.
type Entry struct {
	View  model.ViewKey
	state any
}

// HasState reports whether the entry still carries unconsumed state.
func (e Entry) HasState() bool {
	return e.state != nil
}

// Navigator records where the operator is and what transient state the
// current view was entered with. It lives only in memory; a reload (or a
// restart of the console) starts with no state.
type Navigator struct {
	history []Entry
}

// New creates a navigator positioned at root.
func New(root model.ViewKey) *Navigator {
	return &Navigator{history: []Entry{{View: root}}}
}

// Current returns the active entry.
func (n *Navigator) Current() Entry {
	return n.history[len(n.history)-1]
}

// CurrentView returns the active view key.
func (n *Navigator) CurrentView() model.ViewKey {
	return n.Current().View
}

// Navigate pushes view with optional transient state.
func (n *Navigator) Navigate(view model.ViewKey, state any) {
	n.history = append(n.history, Entry{View: view, state: state})
}

// Replace swaps the active entry for view without growing the history.
func (n *Navigator) Replace(view model.ViewKey, state any) {
	n.history[len(n.history)-1] = Entry{View: view, state: state}
}

// Back pops the active entry. The root entry is never popped; Back reports
// whether it moved. The entry returned to has no state.
func (n *Navigator) Back() bool {
	if len(n.history) <= 1 {
		return false
	}
	n.history = n.history[:len(n.history)-1]
	n.history[len(n.history)-1].state = nil
	return true
}

// Take returns the active entry's state and clears it in place, the way a
// history replace drops state. A second Take for the same entry returns nil.
func (n *Navigator) Take() any {
	i := len(n.history) - 1
	s := n.history[i].state
	n.history[i].state = nil
	return s
}

// TakePending returns the pending-item descriptor carried by the active
// entry, if it is one. Any state is cleared either way.
func (n *Navigator) TakePending() (model.PendingItem, bool) {
	p, ok := n.Take().(model.PendingItem)
	return p, ok
}

// Reload re-enters the active view. Transient state never survives a reload.
func (n *Navigator) Reload() model.ViewKey {
	n.history[len(n.history)-1].state = nil
	return n.CurrentView()
}

// Depth returns the number of entries in the history.
func (n *Navigator) Depth() int {
	return len(n.history)
}

// Reset drops the history back to a single root entry (used on logout).
func (n *Navigator) Reset(root model.ViewKey) {
	n.history = []Entry{{View: root}}
}

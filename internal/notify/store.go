// Package notify holds the working set of notifications shown by the bell.
package notify

import (
	"sync"
	"time"

	"github.com/nhle/certconsole/internal/model"
)

// DefaultMaxRetained is used when New is given a non-positive window.
const DefaultMaxRetained = 100

// Store is a bounded, newest-first set of notifications keyed by id.
// It is safe for concurrent use: the push connection adds from its reader
// goroutine while the UI marks entries read.
type Store struct {
	mu      sync.RWMutex
	max     int
	entries []model.Notification // newest first
	index   map[string]int       // id -> position in entries
	unread  int
	seen    *idRing
	now     func() time.Time
	version uint64
}

// New creates a store retaining at most max notifications.
func New(max int) *Store {
	if max <= 0 {
		max = DefaultMaxRetained
	}
	return &Store{
		max:   max,
		index: make(map[string]int),
		seen:  newIDRing(max * 4),
		now:   time.Now,
	}
}

// Add inserts n at the front if its id is not already known. It reports
// whether the notification was inserted. Ids are remembered for a while
// after eviction so a replay after reconnect does not resurrect an entry.
func (s *Store) Add(n model.Notification) bool {
	if n.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[n.ID]; ok {
		return false
	}
	if s.seen.contains(n.ID) {
		return false
	}

	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = s.now()
	}

	s.entries = append([]model.Notification{n}, s.entries...)
	if !n.IsRead() {
		s.unread++
	}
	s.seen.add(n.ID)

	for len(s.entries) > s.max {
		last := s.entries[len(s.entries)-1]
		if !last.IsRead() {
			s.unread--
		}
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.reindex()
	s.version++
	return true
}

// MarkRead sets ReadAt on the notification with the given id. It is a
// no-op for unknown or already-read ids and reports whether anything changed.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok || s.entries[i].IsRead() {
		return false
	}
	t := s.now()
	s.entries[i].ReadAt = &t
	s.unread--
	s.version++
	return true
}

// MarkAllRead marks every retained notification read.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unread == 0 {
		return
	}
	t := s.now()
	for i := range s.entries {
		if s.entries[i].ReadAt == nil {
			s.entries[i].ReadAt = &t
		}
	}
	s.unread = 0
	s.version++
}

// ClearAll empties the store. Server-side state is untouched, and ids seen
// so far stay remembered for replay suppression.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.index = make(map[string]int)
	s.unread = 0
	s.version++
}

// UnreadCount returns the number of retained unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the number of retained notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the notification with the given id.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Notification{}, false
	}
	return s.entries[i], true
}

// List returns a copy of the retained notifications, newest first.
func (s *Store) List() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Notification, len(s.entries))
	copy(out, s.entries)
	return out
}

// Version increases on every mutation; views compare it to skip re-rendering.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.ID] = i
	}
}

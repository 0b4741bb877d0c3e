package bell

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/certconsole/internal/dispatch"
	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/notify"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func seeded() *notify.Store {
	s := notify.New(10)
	s.Add(model.Notification{ID: "f1", Type: model.NotificationNewUserFAQ, Title: "How long?"})
	s.Add(model.Notification{ID: "e1", Type: model.NotificationNewEnquiry})
	return s
}

func TestEnterEmitsClickForSelected(t *testing.T) {
	m := New(seeded(), keys.DefaultKeyMap(), 80, 20)
	if len(m.Entries()) != 2 {
		t.Fatalf("entries = %d", len(m.Entries()))
	}

	m, _ = m.Update(runeKey("j"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	click, ok := cmd().(dispatch.ClickedMsg)
	if !ok {
		t.Fatalf("got %T, want ClickedMsg", cmd())
	}
	if click.Notification.ID != "f1" {
		t.Errorf("clicked %s, want f1 (second newest)", click.Notification.ID)
	}
}

func TestMarkAllReadAndClear(t *testing.T) {
	s := seeded()
	m := New(s, keys.DefaultKeyMap(), 80, 20)

	m, _ = m.Update(runeKey("m"))
	if s.UnreadCount() != 0 {
		t.Errorf("unread = %d after mark all", s.UnreadCount())
	}
	for _, n := range m.Entries() {
		if !n.IsRead() {
			t.Errorf("%s still unread in view", n.ID)
		}
	}

	m, _ = m.Update(runeKey("x"))
	if s.Len() != 0 || len(m.Entries()) != 0 {
		t.Errorf("store %d, view %d after clear", s.Len(), len(m.Entries()))
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
}

func TestSyncPicksUpNewArrivals(t *testing.T) {
	s := seeded()
	m := New(s, keys.DefaultKeyMap(), 80, 20)
	s.Add(model.Notification{ID: "c1", Type: model.NotificationNewContactMessage})
	m.Sync()
	if got := m.Entries()[0].ID; got != "c1" {
		t.Errorf("newest = %s, want c1", got)
	}
}

func TestNilSource(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 80, 20)
	m, _ = m.Update(runeKey("m"))
	m, _ = m.Update(runeKey("x"))
	if m.View() == "" {
		t.Error("empty view")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(CloseMsg); !ok {
		t.Error("esc should close")
	}
}

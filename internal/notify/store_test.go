package notify

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/nhle/certconsole/internal/model"
)

func note(id string) model.Notification {
	return model.Notification{ID: id, Type: model.NotificationNewEnquiry}
}

func TestAddDeduplicatesByID(t *testing.T) {
	s := New(10)

	if !s.Add(note("a")) {
		t.Fatal("first add of a should insert")
	}
	if s.Add(note("a")) {
		t.Fatal("second add of a should be a no-op")
	}
	s.Add(note("b"))

	got := s.List()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("order = [%s %s], want newest first [b a]", got[0].ID, got[1].ID)
	}
	if s.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", s.UnreadCount())
	}
}

func TestRandomSequencesKeepOneEntryPerID(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		s := New(64)
		distinct := map[string]bool{}
		read := map[string]bool{}

		for i := 0; i < 200; i++ {
			id := fmt.Sprintf("n-%d", rng.Intn(30))
			switch rng.Intn(3) {
			case 0, 1:
				s.Add(note(id))
				distinct[id] = true
			case 2:
				if distinct[id] {
					read[id] = true
				}
				s.MarkRead(id)
			}
		}

		if s.Len() != len(distinct) {
			t.Fatalf("round %d: Len = %d, want %d", round, s.Len(), len(distinct))
		}
		seen := map[string]bool{}
		for _, n := range s.List() {
			if seen[n.ID] {
				t.Fatalf("round %d: duplicate id %s", round, n.ID)
			}
			seen[n.ID] = true
		}
		if want := len(distinct) - len(read); s.UnreadCount() != want {
			t.Fatalf("round %d: UnreadCount = %d, want %d", round, s.UnreadCount(), want)
		}
	}
}

func TestMarkRead(t *testing.T) {
	s := New(10)
	s.Add(note("a"))

	if !s.MarkRead("a") {
		t.Fatal("MarkRead(a) should change state")
	}
	if s.MarkRead("a") {
		t.Error("second MarkRead(a) should be a no-op")
	}
	if s.MarkRead("missing") {
		t.Error("MarkRead of unknown id should be a no-op")
	}
	n, ok := s.Get("a")
	if !ok || !n.IsRead() {
		t.Fatalf("a should be read, got %+v", n)
	}
	if s.UnreadCount() != 0 {
		t.Errorf("UnreadCount = %d, want 0", s.UnreadCount())
	}
}

func TestClearAll(t *testing.T) {
	s := New(10)
	s.Add(note("a"))
	s.Add(note("b"))
	s.ClearAll()

	if s.Len() != 0 || s.UnreadCount() != 0 {
		t.Fatalf("after ClearAll: Len = %d, UnreadCount = %d", s.Len(), s.UnreadCount())
	}
	if s.Add(note("a")) {
		t.Error("a replayed after ClearAll should stay suppressed")
	}
	if !s.Add(note("c")) {
		t.Error("a fresh id should insert after ClearAll")
	}
}

func TestEvictsOldestBeyondWindow(t *testing.T) {
	s := New(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Add(note(id))
	}
	s.MarkRead("d")

	got := s.List()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if _, ok := s.Get("a"); ok {
		t.Error("oldest entry a should have been evicted")
	}
	if s.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", s.UnreadCount())
	}
	if s.Add(note("a")) {
		t.Error("evicted id replayed should not be re-added")
	}
}

func TestMarkAllRead(t *testing.T) {
	s := New(10)
	s.Add(note("a"))
	s.Add(note("b"))
	v := s.Version()
	s.MarkAllRead()
	if s.UnreadCount() != 0 {
		t.Errorf("UnreadCount = %d, want 0", s.UnreadCount())
	}
	if s.Version() == v {
		t.Error("Version should advance on MarkAllRead")
	}
}

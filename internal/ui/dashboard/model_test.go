package dashboard

import (
	"errors"
	"strings"
	"testing"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/sync"
)

func TestApplyCountsAndArrivals(t *testing.T) {
	m := New(100, 30)
	m.ApplyCounts(sync.CountsMsg{
		View:   model.ViewUserFAQs,
		Counts: map[string]int{"pending": 4, "accepted": 2, "rejected": 1},
	})
	m.RecordArrival(model.Notification{ID: "f1", Type: model.NotificationNewUserFAQ})
	m.RecordArrival(model.Notification{ID: "f2", Type: model.NotificationNewUserFAQ})
	m.RecordArrival(model.Notification{ID: "x", Type: "bogus"})

	if n, ok := m.Count(model.ViewUserFAQs, "pending"); !ok || n != 4 {
		t.Errorf("pending = %d, %v", n, ok)
	}
	if got := m.Arrivals(model.ViewUserFAQs); got != 2 {
		t.Errorf("arrivals = %d, want 2", got)
	}

	m.SetConnection(model.ConnectionOpen)
	out := m.View()
	for _, want := range []string{"User FAQs", "Pending 4", "+2", "push open"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFailedPollKeepsNothingStale(t *testing.T) {
	m := New(100, 30)
	m.ApplyCounts(sync.CountsMsg{View: model.ViewEnquiries, Counts: map[string]int{"": 3}})
	m.ApplyCounts(sync.CountsMsg{View: model.ViewEnquiries, Error: errors.New("boom")})
	if !strings.Contains(m.View(), "unavailable") {
		t.Error("error not shown")
	}

	m.ApplyCounts(sync.CountsMsg{View: model.ViewEnquiries, Counts: map[string]int{"": 5}})
	if strings.Contains(m.View(), "unavailable") {
		t.Error("error not cleared by a later success")
	}

	m.Reset()
	if _, ok := m.Count(model.ViewEnquiries, ""); ok {
		t.Error("Reset kept counts")
	}
}

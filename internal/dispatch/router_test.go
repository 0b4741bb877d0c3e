package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/notify"
	"github.com/nhle/certconsole/internal/testutil"
)

func newRouter(t *testing.T, recs ...model.Record) (*Router, *notify.Store, *testutil.Fetcher) {
	t.Helper()
	store := notify.New(10)
	f := testutil.NewFetcher(recs...)
	return NewRouter(store, f, zerolog.Nop()), store, f
}

func TestRouteSameViewFetchesAndSignals(t *testing.T) {
	enq := model.Enquiry{ID: "e1", Subject: "ISO 9001 scope", Status: model.StatusPending, CreatedAt: time.Now()}
	r, store, f := newRouter(t, enq)
	n := model.Notification{ID: "e1", Type: model.NotificationNewEnquiry}
	store.Add(n)

	cmd := r.Route(n, model.ViewEnquiries)
	if store.UnreadCount() != 0 {
		t.Errorf("UnreadCount = %d, want 0 after route", store.UnreadCount())
	}
	if cmd == nil {
		t.Fatal("Route returned nil command")
	}
	msg, ok := cmd().(ItemArrivedMsg)
	if !ok {
		t.Fatalf("msg = %T, want ItemArrivedMsg", msg)
	}
	if msg.View != model.ViewEnquiries || msg.Record.GetID() != "e1" {
		t.Errorf("msg = %+v", msg)
	}
	if got := f.GetCount(model.KindEnquiry, "e1"); got != 1 {
		t.Errorf("fetched %d times, want 1", got)
	}
}

func TestRouteOtherViewNavigatesWithDescriptor(t *testing.T) {
	r, store, f := newRouter(t)
	n := model.Notification{ID: "faq-7", Type: model.NotificationNewUserFAQ}
	store.Add(n)

	msg, ok := r.Route(n, model.ViewDashboard)().(NavigateMsg)
	if !ok {
		t.Fatalf("msg = %T, want NavigateMsg", msg)
	}
	want := model.PendingItem{ItemID: "faq-7", ItemType: model.KindUserFAQ, OriginatingNotificationID: "faq-7"}
	if msg.View != model.ViewUserFAQs || msg.Pending != want {
		t.Errorf("msg = %+v", msg)
	}
	if len(f.Gets()) != 0 {
		t.Error("navigation path must not fetch; the destination page does")
	}
	if got, _ := store.Get("faq-7"); !got.IsRead() {
		t.Error("notification should be marked read")
	}
}

func TestRouteFetchFailureYieldsNothing(t *testing.T) {
	r, store, f := newRouter(t)
	f.GetErr = errors.New("backend down")
	n := model.Notification{ID: "c1", Type: model.NotificationNewContactMessage}
	store.Add(n)

	if msg := r.Route(n, model.ViewContactMessages)(); msg != nil {
		t.Errorf("msg = %#v, want nil on fetch failure", msg)
	}
	if got, ok := store.Get("c1"); !ok || !got.IsRead() {
		t.Error("notification stays in the store, marked read")
	}
}

func TestRouteTwiceIsSafe(t *testing.T) {
	prod := model.ReportedProduct{ID: "p1", ProductName: "Widget", Status: model.StatusPending}
	r, store, f := newRouter(t, prod)
	n := model.Notification{ID: "p1", Type: model.NotificationNewReportedProduct}
	store.Add(n)

	first := r.Route(n, model.ViewReportedProducts)()
	second := r.Route(n, model.ViewReportedProducts)()
	if _, ok := first.(ItemArrivedMsg); !ok {
		t.Fatalf("first = %T", first)
	}
	if _, ok := second.(ItemArrivedMsg); !ok {
		t.Fatalf("second = %T", second)
	}
	if store.UnreadCount() != 0 || store.Len() != 1 {
		t.Errorf("store Len = %d, Unread = %d", store.Len(), store.UnreadCount())
	}
	if f.GetCount(model.KindReportedProduct, "p1") != 2 {
		t.Error("each route fetches; dedup happens in the page")
	}
}

func TestRouteUnknownType(t *testing.T) {
	r, _, _ := newRouter(t)
	if cmd := r.Route(model.Notification{ID: "x", Type: "new-widget"}, model.ViewDashboard); cmd != nil {
		t.Error("unknown type should produce no command")
	}
}

func TestNotifyClicked(t *testing.T) {
	n := model.Notification{ID: "e1", Type: model.NotificationNewEnquiry}
	msg, ok := NotifyClicked(n)().(ClickedMsg)
	if !ok || msg.Notification.ID != "e1" {
		t.Errorf("NotifyClicked = %#v", msg)
	}
}

package listpage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/dispatch"
	"github.com/nhle/certconsole/internal/keys"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/testutil"
	"github.com/nhle/certconsole/internal/ui/replyform"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func enquiry(i int) model.Enquiry {
	return model.Enquiry{
		ID:        fmt.Sprintf("enq-%02d", i),
		Subject:   fmt.Sprintf("Enquiry %d", i),
		Status:    model.StatusOpen,
		CreatedAt: base.Add(time.Duration(i) * time.Minute),
	}
}

func contact(id, status string, minute int) model.ContactMessage {
	return model.ContactMessage{
		ID:        id,
		Message:   "message " + id,
		Status:    status,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

func vs(t *testing.T, key model.ViewKey) model.ViewSpec {
	t.Helper()
	s, ok := model.LookupView(key)
	if !ok {
		t.Fatalf("no view %s", key)
	}
	return s
}

func deps(f *testutil.Fetcher, pageSize int) Deps {
	return Deps{
		Fetcher:   f,
		Updater:   f,
		Keys:      keys.DefaultKeyMap(),
		PageSize:  pageSize,
		Proximity: 2,
		Logger:    zerolog.Nop(),
	}
}

// pump feeds every message produced by cmd (and by the commands those
// messages return) back into m.
func pump(m Model, cmd tea.Cmd) Model {
	for _, msg := range testutil.Collect(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		m = pump(m, next)
	}
	return m
}

func mount(t *testing.T, key model.ViewKey, id uint64, pending *model.PendingItem, f *testutil.Fetcher, pageSize int) Model {
	t.Helper()
	m := New(vs(t, key), id, pending, deps(f, pageSize), 100, 30)
	return pump(m, m.Init())
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ids(recs []model.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.GetID()
	}
	return out
}

func TestMountFetchesFirstPage(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1), enquiry(2), enquiry(3))
	m := mount(t, model.ViewEnquiries, 1, nil, f, 20)

	if got := ids(m.Items()); fmt.Sprint(got) != "[enq-03 enq-02 enq-01]" {
		t.Errorf("items = %v", got)
	}
	lists := f.Lists()
	if len(lists) != 1 || lists[0].Page != 1 || lists[0].Limit != 20 || lists[0].Status != "" {
		t.Errorf("list queries = %+v", lists)
	}
	if len(f.Gets()) != 0 {
		t.Error("no pending item, so no single-record fetch")
	}
}

func TestEnquiryArrivalPrependsWithoutRefetch(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1), enquiry(2))
	m := mount(t, model.ViewEnquiries, 1, nil, f, 20)
	before := m.Pagination().TotalItems

	fresh := enquiry(9)
	m, cmd := m.Update(dispatch.ItemArrivedMsg{View: model.ViewEnquiries, Record: fresh})
	m = pump(m, cmd)

	if m.Items()[0].GetID() != fresh.ID {
		t.Errorf("front = %s, want %s", m.Items()[0].GetID(), fresh.ID)
	}
	if got := m.Pagination().TotalItems; got != before+1 {
		t.Errorf("TotalItems = %d, want %d", got, before+1)
	}
	if len(f.Lists()) != 1 {
		t.Errorf("arrival triggered %d list fetches, want none beyond mount", len(f.Lists())-1)
	}

	// The same record again (a double click on the notification) replaces.
	upgraded := fresh
	upgraded.Message = "full text"
	m, _ = m.Update(dispatch.ItemArrivedMsg{View: model.ViewEnquiries, Record: upgraded})
	if len(m.Items()) != 3 {
		t.Errorf("len = %d, want 3", len(m.Items()))
	}
	if m.Items()[0].(model.Enquiry).Message != "full text" {
		t.Error("duplicate arrival should replace the stored record")
	}
}

func TestArrivalForOtherViewIsIgnored(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1))
	m := mount(t, model.ViewEnquiries, 1, nil, f, 20)
	m, _ = m.Update(dispatch.ItemArrivedMsg{
		View:   model.ViewContactMessages,
		Record: contact("c1", model.StatusPending, 1),
	})
	if len(m.Items()) != 1 {
		t.Errorf("items = %v", ids(m.Items()))
	}
}

func TestArrivalOnAnsweredTabAppearsUnderPending(t *testing.T) {
	f := testutil.NewFetcher(
		contact("p1", model.StatusPending, 1),
		contact("a1", model.StatusAnswered, 2),
	)
	m := mount(t, model.ViewContactMessages, 1, nil, f, 20)
	if m.ActiveTab() != "pending" {
		t.Fatalf("ActiveTab = %q", m.ActiveTab())
	}

	m = pump(m.Update(tea.KeyMsg{Type: tea.KeyTab}))
	if m.ActiveTab() != "answered" {
		t.Fatalf("ActiveTab after tab = %q", m.ActiveTab())
	}
	if got := ids(m.Items()); fmt.Sprint(got) != "[a1]" {
		t.Fatalf("answered items = %v", got)
	}
	listsBefore := len(f.Lists())

	arrived := contact("c9", model.StatusPending, 9)
	m = pump(m.Update(dispatch.ItemArrivedMsg{View: model.ViewContactMessages, Record: arrived}))
	for _, r := range m.Items() {
		if r.GetID() == "c9" {
			t.Fatal("a pending message must not show on the Answered tab")
		}
	}

	m = pump(m.SwitchTab("pending"))
	if got := ids(m.Items()); fmt.Sprint(got) != "[c9 p1]" {
		t.Errorf("pending items = %v", got)
	}
	if len(f.Lists()) != listsBefore {
		t.Error("returning to the loaded Pending tab must not refetch page 1")
	}
}

func TestTabRoundTripIsCacheHit(t *testing.T) {
	f := testutil.NewFetcher(
		contact("p1", model.StatusPending, 1),
		contact("a1", model.StatusAnswered, 2),
	)
	m := mount(t, model.ViewContactMessages, 1, nil, f, 20)
	m = pump(m.SwitchTab("answered"))
	m = pump(m.SwitchTab("pending"))
	m = pump(m.SwitchTab("answered"))

	lists := f.Lists()
	if len(lists) != 2 {
		t.Fatalf("list fetches = %d, want 2 (one per tab)", len(lists))
	}
	if lists[0].Status != model.StatusPending || lists[1].Status != model.StatusAnswered {
		t.Errorf("status filters = %q, %q", lists[0].Status, lists[1].Status)
	}
}

func TestPendingDescriptorFetchesOnceAndHighlights(t *testing.T) {
	faq := model.UserFAQ{ID: "faq-1", Question: "Is ISO 27001 covered?", Status: model.StatusPending, CreatedAt: base}
	older := model.UserFAQ{ID: "faq-0", Question: "Older", Status: model.StatusPending, CreatedAt: base.Add(-time.Hour)}
	f := testutil.NewFetcher(faq, older)
	pending := &model.PendingItem{ItemID: "faq-1", ItemType: model.KindUserFAQ, OriginatingNotificationID: "faq-1"}

	m := mount(t, model.ViewUserFAQs, 1, pending, f, 20)

	if got := f.GetCount(model.KindUserFAQ, "faq-1"); got != 1 {
		t.Errorf("fetch-by-id count = %d, want 1", got)
	}
	if m.Highlighted() != "faq-1" {
		t.Errorf("Highlighted = %q", m.Highlighted())
	}
	sel, ok := m.SelectedRecord()
	if !ok || sel.GetID() != "faq-1" {
		t.Errorf("cursor on %v", sel)
	}
	if got := ids(m.Items()); fmt.Sprint(got) != "[faq-1 faq-0]" {
		t.Errorf("items = %v (no duplicate expected)", got)
	}
}

func TestPendingDescriptorSwitchesToRecordTab(t *testing.T) {
	faq := model.UserFAQ{ID: "faq-2", Question: "Accepted one", Status: model.StatusAccepted, CreatedAt: base}
	f := testutil.NewFetcher(faq)
	pending := &model.PendingItem{ItemID: "faq-2", ItemType: model.KindUserFAQ}

	m := mount(t, model.ViewUserFAQs, 1, pending, f, 20)
	if m.ActiveTab() != "accepted" {
		t.Errorf("ActiveTab = %q, want accepted", m.ActiveTab())
	}
	if got := ids(m.Items()); fmt.Sprint(got) != "[faq-2]" {
		t.Errorf("items = %v", got)
	}
}

func TestPendingDescriptorForOtherKindIsIgnored(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1))
	pending := &model.PendingItem{ItemID: "faq-9", ItemType: model.KindUserFAQ}
	mount(t, model.ViewEnquiries, 1, pending, f, 20)
	if len(f.Gets()) != 0 {
		t.Errorf("gets = %v", f.Gets())
	}
}

func TestPendingRecordWithNoTabKeepsCursor(t *testing.T) {
	newer := model.UserFAQ{ID: "faq-1", Question: "Newer", Status: model.StatusPending, CreatedAt: base}
	older := model.UserFAQ{ID: "faq-0", Question: "Older", Status: model.StatusPending, CreatedAt: base.Add(-time.Hour)}
	gone := model.UserFAQ{ID: "faq-x", Question: "Closed out", Status: model.StatusClosed, CreatedAt: base}
	f := testutil.NewFetcher(newer, older, gone)
	pending := &model.PendingItem{ItemID: "faq-x", ItemType: model.KindUserFAQ}

	m := mount(t, model.ViewUserFAQs, 1, pending, f, 20)
	if m.Highlighted() != "" || m.jumpTo != "" {
		t.Fatalf("highlighted %q jumpTo %q, want nothing for a record with no tab", m.Highlighted(), m.jumpTo)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	arrived := model.UserFAQ{ID: "faq-2", Question: "Fresh", Status: model.StatusPending, CreatedAt: base.Add(time.Hour)}
	m, _ = m.Update(dispatch.ItemArrivedMsg{View: model.ViewUserFAQs, Record: arrived})

	sel, ok := m.SelectedRecord()
	if !ok || sel.GetID() != "faq-0" {
		t.Errorf("cursor on %v, want it to stay on faq-0", sel)
	}
}

func TestResultsForEarlierMountAreDropped(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1))
	pending := &model.PendingItem{ItemID: "enq-01", ItemType: model.KindEnquiry}

	first := New(vs(t, model.ViewEnquiries), 1, pending, deps(f, 20), 100, 30)
	stale := testutil.Collect(first.Init())

	second := New(vs(t, model.ViewEnquiries), 2, nil, deps(f, 20), 100, 30)
	second.Init() // not pumped: page 1 stays in flight
	for _, msg := range stale {
		second, _ = second.Update(msg)
	}
	if len(second.Items()) != 0 || second.Highlighted() != "" {
		t.Errorf("second mount applied stale results: %v", ids(second.Items()))
	}
	if !second.Loading() {
		t.Error("second mount's own page 1 is still pending")
	}
}

func TestInfiniteScrollRequestsNextPageOnce(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 25; i++ {
		recs = append(recs, enquiry(i))
	}
	f := testutil.NewFetcher(recs...)
	m := mount(t, model.ViewEnquiries, 1, nil, f, 10)
	if len(m.Items()) != 10 {
		t.Fatalf("page 1 items = %d", len(m.Items()))
	}

	var fetches []tea.Msg
	for i := 0; i < 9; i++ {
		var cmd tea.Cmd
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyDown})
		for _, msg := range testutil.Collect(cmd) {
			if _, ok := msg.(PageLoadedMsg); ok {
				fetches = append(fetches, msg)
			}
		}
	}
	if len(fetches) != 1 {
		t.Fatalf("page fetches while scrolling = %d, want 1", len(fetches))
	}
	m, _ = m.Update(fetches[0])
	if len(m.Items()) != 20 || m.Pagination().CurrentPage != 2 {
		t.Errorf("after page 2: %d items, %+v", len(m.Items()), m.Pagination())
	}
}

func TestFailedPageKeepsItems(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1), enquiry(2))
	m := mount(t, model.ViewEnquiries, 1, nil, f, 20)

	f.ListErr = errors.New("backend down")
	m = pump(m.Update(keyRunes("r")))
	if m.Err() == nil {
		t.Error("refresh failure should be reported")
	}
	if len(m.Items()) != 2 || m.Pagination().CurrentPage != 1 {
		t.Errorf("failed refresh changed the list: %v %+v", ids(m.Items()), m.Pagination())
	}

	f.ListErr = nil
	m = pump(m.Update(keyRunes("r")))
	if len(m.Items()) != 2 || m.Err() != nil {
		t.Errorf("after retry: %v, err %v", ids(m.Items()), m.Err())
	}
}

func TestFailedPendingFetchLeavesItems(t *testing.T) {
	f := testutil.NewFetcher(enquiry(1))
	m := New(vs(t, model.ViewEnquiries), 1, &model.PendingItem{ItemID: "gone", ItemType: model.KindEnquiry}, deps(f, 20), 100, 30)
	m = pump(m, m.Init())
	if got := ids(m.Items()); fmt.Sprint(got) != "[enq-01]" {
		t.Errorf("items = %v", got)
	}
	if m.Highlighted() != "" {
		t.Error("nothing to highlight")
	}
}

func TestSearchRefetchesWithFilter(t *testing.T) {
	a := enquiry(1)
	a.Subject = "ISO audit"
	f := testutil.NewFetcher(a, enquiry(2))
	m := mount(t, model.ViewEnquiries, 1, nil, f, 20)

	m, _ = m.Update(keyRunes("/"))
	if !m.Capturing() {
		t.Fatal("search mode should capture keys")
	}
	m.searchInput.SetValue("iso")
	m = pump(m.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	lists := f.Lists()
	if last := lists[len(lists)-1]; last.Search != "iso" || last.Page != 1 {
		t.Errorf("last query = %+v", last)
	}
	if got := ids(m.Items()); fmt.Sprint(got) != "[enq-01]" {
		t.Errorf("items = %v", got)
	}
}

func TestApproveMovesRecordBetweenTabs(t *testing.T) {
	f := testutil.NewFetcher(
		model.ReportedProduct{ID: "rp1", ProductName: "Valve", Status: model.StatusPending, CreatedAt: base},
		model.ReportedProduct{ID: "rp2", ProductName: "Pump", Status: model.StatusPending, CreatedAt: base.Add(time.Minute)},
	)
	m := mount(t, model.ViewReportedProducts, 1, nil, f, 20)
	sel, _ := m.SelectedRecord()

	m = pump(m.Update(keyRunes("a")))
	for _, r := range m.Items() {
		if r.GetID() == sel.GetID() {
			t.Fatalf("%s resolved but still on the Pending tab", sel.GetID())
		}
	}
	if m.Pagination().TotalItems != 1 {
		t.Errorf("pending TotalItems = %d, want 1", m.Pagination().TotalItems)
	}
}

func TestReplyRequiredActionsOpenForm(t *testing.T) {
	f := testutil.NewFetcher(contact("c1", model.StatusPending, 1))
	m := mount(t, model.ViewContactMessages, 1, nil, f, 20)

	m, _ = m.Update(keyRunes("a"))
	if !m.Capturing() {
		t.Fatal("answering a contact message should open the reply form")
	}

	sel := m.reply.Record()
	m = pump(m.Update(replyform.SubmittedMsg{Record: sel, Action: model.ActionApprove, Text: "Thanks"}))
	if len(m.Items()) != 0 {
		t.Errorf("answered message should leave the Pending tab, items = %v", ids(m.Items()))
	}
	m = pump(m.SwitchTab("answered"))
	if len(m.Items()) != 1 || m.Items()[0].(model.ContactMessage).Reply != "Thanks" {
		t.Errorf("answered items = %+v", m.Items())
	}
}

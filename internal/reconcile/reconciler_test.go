package reconcile

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

type rec struct {
	id     string
	status string
	body   string
}

func (r rec) GetID() string { return r.id }

func tabOf(r rec) string {
	switch r.status {
	case "pending":
		return "pending"
	case "answered":
		return "answered"
	default:
		return "?"
	}
}

func newTabbed() *Reconciler[rec] {
	return New([]string{"pending", "answered"}, tabOf)
}

func ids(items []rec) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func sortedIDs(items []rec) []string {
	out := ids(items)
	sort.Strings(out)
	return out
}

func page(prefix string, from, n int, status string) []rec {
	out := make([]rec, n)
	for i := range out {
		out[i] = rec{id: fmt.Sprintf("%s%d", prefix, from+i), status: status}
	}
	return out
}

func mustStart(t *testing.T, r *Reconciler[rec]) PageRequest {
	t.Helper()
	req, ok := r.Start()
	if !ok {
		t.Fatal("Start should request page 1")
	}
	return req
}

func TestPageOneReplacesLaterPagesAppend(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	if !r.ApplyPage(req, page("a", 0, 3, ""), 2, 5) {
		t.Fatal("page 1 should apply")
	}

	next, ok := r.LoadMore(2, 0)
	if !ok || next.Page != 2 {
		t.Fatalf("LoadMore = %+v, %v", next, ok)
	}
	// Page 2 overlaps a2 (shifted by an insert on the server).
	r.ApplyPage(next, []rec{{id: "a2", body: "v2"}, {id: "a3"}, {id: "a4"}}, 2, 5)

	got := ids(r.Items())
	want := []string{"a0", "a1", "a2", "a3", "a4"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if r.Items()[2].body != "v2" {
		t.Error("duplicate from page 2 should replace the earlier entry")
	}
	p := r.Pagination()
	if p.CurrentPage != 2 || p.TotalPages != 2 || p.TotalItems != 5 {
		t.Errorf("pagination = %+v", p)
	}

	refresh, ok := r.Refresh()
	if !ok {
		t.Fatal("Refresh should request page 1")
	}
	r.ApplyPage(refresh, page("b", 0, 2, ""), 1, 2)
	if got := ids(r.Items()); fmt.Sprint(got) != "[b0 b1]" {
		t.Errorf("after refresh items = %v", got)
	}
}

func TestMergeReplacesExistingEntry(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	r.ApplyPage(req, []rec{{id: "x", body: "thin"}, {id: "y"}}, 1, 2)

	a, ok := r.Merge(rec{id: "x", body: "full"})
	if !ok || a.New {
		t.Fatalf("Merge = %+v, %v; want existing entry replaced", a, ok)
	}
	if len(r.Items()) != 2 {
		t.Fatalf("len = %d, want unchanged 2", len(r.Items()))
	}
	if r.Items()[0].body != "full" {
		t.Errorf("stored body = %q, want full", r.Items()[0].body)
	}
	if r.Pagination().TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", r.Pagination().TotalItems)
	}
}

func TestArrivalPrependsAndCounts(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	r.ApplyPage(req, page("e", 0, 3, ""), 1, 3)

	a, ok := r.Merge(rec{id: "new"})
	if !ok || !a.New || !a.Visible {
		t.Fatalf("Merge = %+v, %v", a, ok)
	}
	if r.Items()[0].id != "new" {
		t.Errorf("front = %s, want new", r.Items()[0].id)
	}
	if r.Pagination().TotalItems != 4 {
		t.Errorf("TotalItems = %d, want 4", r.Pagination().TotalItems)
	}
	if r.Loading() {
		t.Error("an arrival must not trigger a page fetch")
	}
}

// TestInterleavingsProduceSameSet applies a page-1 result and a set of
// arrivals in every random order and checks the resulting id set.
func TestInterleavingsProduceSameSet(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pageRecs := page("p", 0, 5, "pending")
	arrivals := []rec{
		{id: "n1", status: "pending"},
		{id: "n2", status: "pending"},
		{id: "p3", status: "pending", body: "upgraded"},
	}

	var want []string
	for round := 0; round < 200; round++ {
		r := newTabbed()
		req := mustStart(t, r)

		steps := []func(){}
		steps = append(steps, func() { r.ApplyPage(req, pageRecs, 1, 5) })
		for _, a := range arrivals {
			a := a
			steps = append(steps, func() { r.Merge(a) })
			if rng.Intn(2) == 0 {
				steps = append(steps, func() { r.Merge(a) }) // duplicate delivery
			}
		}
		rng.Shuffle(len(steps), func(i, j int) { steps[i], steps[j] = steps[j], steps[i] })
		for _, s := range steps {
			s()
		}

		got := sortedIDs(r.Items())
		if want == nil {
			want = got
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("round %d: ids = %v, want %v", round, got, want)
		}
		if r.Pagination().TotalItems != 7 {
			t.Fatalf("round %d: TotalItems = %d, want 7", round, r.Pagination().TotalItems)
		}
		seen := map[string]bool{}
		for _, it := range r.Items() {
			if seen[it.id] {
				t.Fatalf("round %d: duplicate %s", round, it.id)
			}
			seen[it.id] = true
		}
	}
	if fmt.Sprint(want) != "[n1 n2 p0 p1 p2 p3 p4]" {
		t.Errorf("final set = %v", want)
	}
}

func TestTabSwitchRestoresCacheWithoutRefetch(t *testing.T) {
	r := newTabbed()
	req := mustStart(t, r)
	r.ApplyPage(req, page("p", 0, 3, "pending"), 2, 6)
	more, _ := r.LoadMore(2, 0)
	r.ApplyPage(more, page("p", 3, 3, "pending"), 2, 6)

	bReq, ok := r.SwitchTab("answered")
	if !ok || bReq.Page != 1 || bReq.Tab != "answered" {
		t.Fatalf("first visit to answered should fetch page 1, got %+v %v", bReq, ok)
	}
	if len(r.Items()) != 0 {
		t.Errorf("answered should start empty, got %v", ids(r.Items()))
	}
	r.ApplyPage(bReq, page("a", 0, 2, "answered"), 1, 2)

	if _, fetch := r.SwitchTab("pending"); fetch {
		t.Fatal("returning to a loaded tab must not request page 1")
	}
	if got := len(r.Items()); got != 6 {
		t.Errorf("pending items = %d, want 6", got)
	}
	if p := r.Pagination(); p.CurrentPage != 2 || p.TotalItems != 6 {
		t.Errorf("pending pagination = %+v", p)
	}
	if _, fetch := r.SwitchTab("answered"); fetch {
		t.Error("answered is cached too")
	}
}

func TestTabSwitchDuringInflightFetchDoesNotDuplicate(t *testing.T) {
	r := newTabbed()
	req := mustStart(t, r)
	r.SwitchTab("answered")
	if _, fetch := r.SwitchTab("pending"); fetch {
		t.Fatal("page 1 of pending is still in flight; no second request")
	}
	if !r.ApplyPage(req, page("p", 0, 2, "pending"), 1, 2) {
		t.Fatal("in-flight result should still land in its tab")
	}
	if len(r.Items()) != 2 {
		t.Errorf("items = %v", ids(r.Items()))
	}
}

func TestArrivalForOtherTabIsHiddenButCached(t *testing.T) {
	r := newTabbed()
	req := mustStart(t, r)
	r.ApplyPage(req, page("p", 0, 2, "pending"), 1, 2)
	aReq, _ := r.SwitchTab("answered")
	r.ApplyPage(aReq, page("a", 0, 2, "answered"), 1, 2)

	a, ok := r.Merge(rec{id: "m1", status: "pending"})
	if !ok || a.Visible || a.Tab != "pending" {
		t.Fatalf("Merge = %+v, %v", a, ok)
	}
	for _, it := range r.Items() {
		if it.id == "m1" {
			t.Fatal("pending record must not show on the answered tab")
		}
	}

	if _, fetch := r.SwitchTab("pending"); fetch {
		t.Fatal("pending is cached")
	}
	if r.Items()[0].id != "m1" {
		t.Errorf("pending front = %s, want m1", r.Items()[0].id)
	}
	if r.Pagination().TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", r.Pagination().TotalItems)
	}
}

func TestStatusChangeMovesRecordBetweenTabs(t *testing.T) {
	r := newTabbed()
	req := mustStart(t, r)
	r.ApplyPage(req, page("p", 0, 3, "pending"), 1, 3)

	r.Merge(rec{id: "p1", status: "answered"})
	if got := ids(r.Items()); fmt.Sprint(got) != "[p0 p2]" {
		t.Fatalf("pending items = %v", got)
	}
	if r.Pagination().TotalItems != 2 {
		t.Errorf("pending TotalItems = %d, want 2", r.Pagination().TotalItems)
	}

	aReq, _ := r.SwitchTab("answered")
	if got := ids(r.Items()); fmt.Sprint(got) != "[p1]" {
		t.Errorf("answered items before fetch = %v", got)
	}
	r.ApplyPage(aReq, []rec{{id: "p1", status: "answered"}, {id: "a0", status: "answered"}}, 1, 2)
	if got := ids(r.Items()); fmt.Sprint(got) != "[p1 a0]" {
		t.Errorf("answered items = %v", got)
	}
	if r.Pagination().TotalItems != 2 {
		t.Errorf("answered TotalItems = %d, want 2", r.Pagination().TotalItems)
	}
}

func TestUnknownStatusIsDropped(t *testing.T) {
	r := newTabbed()
	if _, ok := r.Merge(rec{id: "z", status: "archived"}); ok {
		t.Error("a record with no matching tab should be dropped")
	}
	if len(r.Items()) != 0 {
		t.Error("nothing should be listed")
	}
}

func TestLoadMoreGuards(t *testing.T) {
	r := New[rec](nil, nil)
	if _, ok := r.LoadMore(0, 3); ok {
		t.Fatal("LoadMore before page 1 must not fire")
	}
	req := mustStart(t, r)
	if _, ok := r.LoadMore(0, 3); ok {
		t.Fatal("LoadMore while page 1 is in flight must not fire")
	}
	r.ApplyPage(req, page("a", 0, 10, ""), 3, 30)

	if _, ok := r.LoadMore(2, 3); ok {
		t.Error("cursor far from the end must not fire")
	}
	p2, ok := r.LoadMore(6, 3)
	if !ok || p2.Page != 2 {
		t.Fatalf("LoadMore near end = %+v, %v", p2, ok)
	}
	if _, ok := r.LoadMore(9, 3); ok {
		t.Error("second LoadMore while page 2 is in flight must not fire")
	}

	r.FailPage(p2, errors.New("boom"))
	if len(r.Items()) != 10 || r.Pagination().CurrentPage != 1 {
		t.Errorf("failed page must leave state untouched: %d items, %+v", len(r.Items()), r.Pagination())
	}
	if r.Err() == nil {
		t.Error("Err should report the failure")
	}

	retry, ok := r.LoadMore(9, 3)
	if !ok || retry.Page != 2 {
		t.Fatalf("retry = %+v, %v", retry, ok)
	}
	r.ApplyPage(retry, page("a", 10, 10, ""), 3, 30)
	p3, _ := r.LoadMore(19, 0)
	r.ApplyPage(p3, page("a", 20, 10, ""), 3, 30)
	if _, ok := r.LoadMore(29, 3); ok {
		t.Error("no pages remain")
	}
	if r.Err() != nil {
		t.Error("a successful page clears the error")
	}
}

func TestSearchChangeDiscardsStaleResults(t *testing.T) {
	r := newTabbed()
	old := mustStart(t, r)

	req, ok := r.SetSearch("iso")
	if !ok || req.Search != "iso" || req.Page != 1 {
		t.Fatalf("SetSearch = %+v, %v", req, ok)
	}
	if r.ApplyPage(old, page("old", 0, 3, "pending"), 1, 3) {
		t.Fatal("result for the previous filter must be discarded")
	}
	if !r.ApplyPage(req, page("iso", 0, 1, "pending"), 1, 1) {
		t.Fatal("result for the current filter should apply")
	}
	if got := ids(r.Items()); fmt.Sprint(got) != "[iso0]" {
		t.Errorf("items = %v", got)
	}
	if _, ok := r.SetSearch("iso"); ok {
		t.Error("unchanged search should not refetch")
	}
	if _, fetch := r.SwitchTab("answered"); !fetch {
		t.Error("other tabs were reset by the search change")
	}
}

func TestMergePendingSwitchesToRecordTab(t *testing.T) {
	r := newTabbed()
	req := mustStart(t, r)
	r.ApplyPage(req, page("p", 0, 2, "pending"), 1, 2)

	aReq, fetch, ok := r.MergePending(rec{id: "a9", status: "answered"})
	if !ok || !fetch || aReq.Tab != "answered" {
		t.Fatalf("MergePending = %+v, %v, %v", aReq, fetch, ok)
	}
	if r.ActiveTab() != "answered" || r.Selected() != "a9" {
		t.Errorf("active %s selected %s", r.ActiveTab(), r.Selected())
	}
	r.ApplyPage(aReq, page("a", 0, 2, "answered"), 1, 2)
	if got := ids(r.Items()); fmt.Sprint(got) != "[a9 a0 a1]" {
		t.Errorf("items = %v", got)
	}

	// Same record delivered again (double click): no duplicate.
	r.MergePending(rec{id: "a9", status: "answered", body: "again"})
	if len(r.Items()) != 3 || r.Items()[0].body != "again" {
		t.Errorf("items after duplicate = %v", ids(r.Items()))
	}
}

func TestPendingRecordIsNotCountedTwice(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	r.ApplyPage(req, page("e", 0, 2, ""), 2, 4)

	// e3 lives on page 2; the server total already includes it.
	if _, _, ok := r.MergePending(rec{id: "e3"}); !ok {
		t.Fatal("MergePending should accept an untabbed record")
	}
	if got := r.Pagination().TotalItems; got != 4 {
		t.Errorf("TotalItems = %d, want server total 4", got)
	}

	req, _ = r.Refresh()
	r.ApplyPage(req, page("e", 0, 2, ""), 2, 4)
	if got := ids(r.Items()); fmt.Sprint(got) != "[e3 e0 e1]" {
		t.Errorf("items after refresh = %v, want pending record kept", got)
	}
	if got := r.Pagination().TotalItems; got != 4 {
		t.Errorf("TotalItems after refresh = %d, want 4", got)
	}
}

func TestArrivalStopsCountingOnceServerTotalGrows(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	r.ApplyPage(req, page("e", 0, 2, ""), 2, 3)

	r.Merge(rec{id: "new"})
	if got := r.Pagination().TotalItems; got != 4 {
		t.Fatalf("TotalItems after arrival = %d, want 4", got)
	}

	// The offset shifted by the arrival: page 2 repeats e1 and the new
	// total already includes the arrival.
	req, ok := r.LoadMore(len(r.Items())-1, 0)
	if !ok {
		t.Fatal("LoadMore should request page 2")
	}
	r.ApplyPage(req, page("e", 1, 2, ""), 2, 4)
	if got := ids(r.Items()); fmt.Sprint(got) != "[new e0 e1 e2]" {
		t.Errorf("items = %v", got)
	}
	if got := r.Pagination().TotalItems; got != 4 {
		t.Errorf("TotalItems = %d, want server total 4", got)
	}
}

func TestTwoArrivalsSettleOneAtATime(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	r.ApplyPage(req, page("e", 0, 2, ""), 2, 3)

	r.Merge(rec{id: "n1"})
	r.Merge(rec{id: "n2"})
	req, _ = r.LoadMore(len(r.Items())-1, 0)
	// Only one of the two has reached the server so far.
	r.ApplyPage(req, page("e", 2, 1, ""), 2, 4)
	if got := r.Pagination().TotalItems; got != 5 {
		t.Errorf("TotalItems = %d, want 5", got)
	}
}

func TestPendingWithUnknownStatusIsRejected(t *testing.T) {
	r := newTabbed()
	req := mustStart(t, r)
	r.ApplyPage(req, page("p", 0, 2, "pending"), 1, 2)

	if _, _, ok := r.MergePending(rec{id: "z", status: "archived"}); ok {
		t.Error("a record with no matching tab should be rejected")
	}
	if r.Selected() == "z" {
		t.Error("a rejected record must not become selected")
	}
}

func TestArrivalBeforeFirstPageStaysCounted(t *testing.T) {
	r := New[rec](nil, nil)
	req := mustStart(t, r)
	r.Merge(rec{id: "new"})
	r.ApplyPage(req, page("e", 0, 2, ""), 3, 6)
	if got := r.Pagination().TotalItems; got != 7 {
		t.Fatalf("TotalItems after page 1 = %d, want 7", got)
	}

	req, _ = r.LoadMore(len(r.Items())-1, 0)
	r.ApplyPage(req, page("e", 2, 2, ""), 3, 6)
	if got := r.Pagination().TotalItems; got != 7 {
		t.Errorf("TotalItems after page 2 = %d, want 7", got)
	}
}

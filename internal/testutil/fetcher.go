// Package testutil holds fakes and helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/model"
)

// Fetcher is an in-memory api.RecordFetcher. Records are listed newest
// first by CreatedAt and filtered by status and a case-insensitive title
// search. Calls are recorded for assertions.
type Fetcher struct {
	mu      sync.Mutex
	records map[model.RecordKind]map[string]model.Record

	// GetErr and ListErr, when set, fail the corresponding calls.
	GetErr  error
	ListErr error

	gets  []string
	lists []api.ListQuery
}

var _ api.RecordFetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher holding recs.
func NewFetcher(recs ...model.Record) *Fetcher {
	f := &Fetcher{records: make(map[model.RecordKind]map[string]model.Record)}
	for _, r := range recs {
		f.Put(r)
	}
	return f
}

// Put inserts or replaces a record.
func (f *Fetcher) Put(r model.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID, ok := f.records[r.GetKind()]
	if !ok {
		byID = make(map[string]model.Record)
		f.records[r.GetKind()] = byID
	}
	byID[r.GetID()] = r
}

// GetRecord implements api.RecordFetcher.
func (f *Fetcher) GetRecord(_ context.Context, kind model.RecordKind, id string) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, string(kind)+"/"+id)
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	r, ok := f.records[kind][id]
	if !ok {
		return nil, &api.StatusError{Method: "GET", Path: string(kind) + "/" + id, StatusCode: 404}
	}
	return r, nil
}

// ListRecords implements api.RecordFetcher.
func (f *Fetcher) ListRecords(_ context.Context, kind model.RecordKind, q api.ListQuery) (*api.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, q)
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var all []model.Record
	for _, r := range f.records[kind] {
		if q.Status != "" && r.GetStatus() != q.Status {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(r.GetTitle()), strings.ToLower(q.Search)) {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].GetCreatedAt().Equal(all[j].GetCreatedAt()) {
			return all[i].GetCreatedAt().After(all[j].GetCreatedAt())
		}
		return all[i].GetID() < all[j].GetID()
	})

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	totalPages := (len(all) + limit - 1) / limit
	start := (page - 1) * limit
	end := start + limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return &api.ListPage{
		Records:    append([]model.Record(nil), all[start:end]...),
		Page:       page,
		Pagination: api.Pagination{TotalPages: totalPages, Total: len(all)},
	}, nil
}

// UpdateStatus changes the status of a stored record.
func (f *Fetcher) UpdateStatus(_ context.Context, kind model.RecordKind, id, status, reply string) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[kind][id]
	if !ok {
		return nil, &api.StatusError{Method: "PATCH", Path: string(kind) + "/" + id, StatusCode: 404}
	}
	var out model.Record
	switch v := r.(type) {
	case model.Enquiry:
		v.Status = status
		out = v
	case model.ContactMessage:
		v.Status = status
		if reply != "" {
			v.Reply = reply
		}
		out = v
	case model.ReportedProduct:
		v.Status = status
		out = v
	case model.UserFAQ:
		v.Status = status
		if reply != "" {
			v.Answer = reply
		}
		out = v
	default:
		return nil, fmt.Errorf("unsupported record %T", r)
	}
	f.records[kind][id] = out
	return out, nil
}

// Gets returns the "kind/id" keys of every GetRecord call so far.
func (f *Fetcher) Gets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.gets...)
}

// GetCount returns how many times kind/id was fetched.
func (f *Fetcher) GetCount(kind model.RecordKind, id string) int {
	key := string(kind) + "/" + id
	n := 0
	for _, g := range f.Gets() {
		if g == key {
			n++
		}
	}
	return n
}

// Lists returns the queries of every ListRecords call so far.
func (f *Fetcher) Lists() []api.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ListQuery(nil), f.lists...)
}

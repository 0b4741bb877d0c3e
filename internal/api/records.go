package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/certconsole/internal/model"
)

// KindPath returns the collection path for a record kind.
func KindPath(kind model.RecordKind) (string, error) {
	switch kind {
	case model.KindEnquiry:
		return "/api/enquiries", nil
	case model.KindContactMessage:
		return "/api/contact-messages", nil
	case model.KindReportedProduct:
		return "/api/reported-products", nil
	case model.KindUserFAQ:
		return "/api/user-faqs", nil
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
}

// ListQuery holds the parameters accepted by the paginated list endpoints.
type ListQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// Values encodes q as URL query parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Pagination is the pagination block of a list response.
type Pagination struct {
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// ListPage is one decoded page of records.
type ListPage struct {
	Records    []model.Record
	Page       int
	Pagination Pagination
}

type listEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type recordEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// RecordFetcher is the subset of the client used by the live-update path
// and the list views. Tests substitute fakes.
type RecordFetcher interface {
	GetRecord(ctx context.Context, kind model.RecordKind, id string) (model.Record, error)
	ListRecords(ctx context.Context, kind model.RecordKind, q ListQuery) (*ListPage, error)
}

var _ RecordFetcher = (*Client)(nil)

// GetRecord fetches the full record of the given kind by id.
func (c *Client) GetRecord(
	ctx context.Context,
	kind model.RecordKind,
	id string,
) (model.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("fetching %s: empty id", kind)
	}
	base, err := KindPath(kind)
	if err != nil {
		return nil, err
	}

	var env recordEnvelope
	if err := c.Get(ctx, base+"/"+url.PathEscape(id), &env); err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", kind, id, err)
	}
	return DecodeRecord(kind, env.Data)
}

// ListRecords fetches one page of records of the given kind.
func (c *Client) ListRecords(
	ctx context.Context,
	kind model.RecordKind,
	q ListQuery,
) (*ListPage, error) {
	base, err := KindPath(kind)
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := c.Get(ctx, base+"?"+q.Values().Encode(), &env); err != nil {
		return nil, fmt.Errorf("listing %s page %d: %w", kind, q.Page, err)
	}

	records, err := DecodeRecords(kind, env.Data)
	if err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return &ListPage{
		Records:    records,
		Page:       page,
		Pagination: env.Pagination,
	}, nil
}

// UpdateStatus changes a record's status, optionally with a reply text.
func (c *Client) UpdateStatus(
	ctx context.Context,
	kind model.RecordKind,
	id string,
	status string,
	reply string,
) (model.Record, error) {
	base, err := KindPath(kind)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"status": status}
	if reply != "" {
		body["reply"] = reply
	}
	var env recordEnvelope
	if err := c.Patch(ctx, base+"/"+url.PathEscape(id)+"/status", body, &env); err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", kind, id, err)
	}
	return DecodeRecord(kind, env.Data)
}

// Login exchanges operator credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.Post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("logging in as %s: %w", email, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("logging in as %s: empty token in response", email)
	}
	return resp.Token, nil
}

// DecodeRecord decodes a single JSON record of the given kind.
func DecodeRecord(kind model.RecordKind, data []byte) (model.Record, error) {
	switch kind {
	case model.KindEnquiry:
		return decodeOne[model.Enquiry](kind, data)
	case model.KindContactMessage:
		return decodeOne[model.ContactMessage](kind, data)
	case model.KindReportedProduct:
		return decodeOne[model.ReportedProduct](kind, data)
	case model.KindUserFAQ:
		return decodeOne[model.UserFAQ](kind, data)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

// DecodeRecords decodes a JSON array of records of the given kind.
func DecodeRecords(kind model.RecordKind, data []byte) ([]model.Record, error) {
	switch kind {
	case model.KindEnquiry:
		return decodeMany[model.Enquiry](kind, data)
	case model.KindContactMessage:
		return decodeMany[model.ContactMessage](kind, data)
	case model.KindReportedProduct:
		return decodeMany[model.ReportedProduct](kind, data)
	case model.KindUserFAQ:
		return decodeMany[model.UserFAQ](kind, data)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

func decodeOne[T model.Record](kind model.RecordKind, data []byte) (model.Record, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind, err)
	}
	if rec.GetID() == "" {
		return nil, fmt.Errorf("decoding %s: missing id", kind)
	}
	return rec, nil
}

func decodeMany[T model.Record](kind model.RecordKind, data []byte) ([]model.Record, error) {
	if len(data) == 0 || string(data) == "null" {
		return []model.Record{}, nil
	}
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", kind, err)
	}
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	return out, nil
}

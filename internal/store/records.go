package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/certconsole/internal/model"
)

// table describes how one record kind is laid out in SQLite.
type table struct {
	name    string
	columns []string
	search  []string
	// reply is the column that receives operator text on a status change.
	reply string
}

var tables = map[model.RecordKind]table{
	model.KindEnquiry: {
		name:    "enquiries",
		columns: []string{"id", "name", "email", "organisation", "subject", "message", "status", "created_at"},
		search:  []string{"subject", "name", "email", "organisation", "message"},
	},
	model.KindContactMessage: {
		name:    "contact_messages",
		columns: []string{"id", "name", "email", "message", "reply", "status", "created_at"},
		search:  []string{"name", "email", "message"},
		reply:   "reply",
	},
	model.KindReportedProduct: {
		name:    "reported_products",
		columns: []string{"id", "product_id", "product_name", "reason", "reporter_email", "status", "created_at"},
		search:  []string{"product_name", "reason", "reporter_email"},
	},
	model.KindUserFAQ: {
		name:    "user_faqs",
		columns: []string{"id", "question", "answer", "submitted_by", "status", "created_at"},
		search:  []string{"question", "submitted_by"},
		reply:   "answer",
	},
}

func tableFor(kind model.RecordKind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("unknown record kind %q", kind)
	}
	return t, nil
}

// where builds the WHERE clause shared by list and count queries.
func (t table) where(f RecordFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		var ors []string
		like := "%" + q + "%"
		for _, c := range t.search {
			ors = append(ors, c+" LIKE ?")
			args = append(args, like)
		}
		conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListRecords returns records of kind, newest first.
func (s *SQLiteStore) ListRecords(
	ctx context.Context,
	kind model.RecordKind,
	f RecordFilter,
) ([]model.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	where, args := t.where(f)
	query := "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name + where +
		" ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
		if f.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", f.Offset)
		}
	}

	recs, err := selectKind(ctx, s.db, kind, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	return recs, nil
}

// CountRecords returns how many records of kind match f, ignoring
// Limit and Offset.
func (s *SQLiteStore) CountRecords(
	ctx context.Context,
	kind model.RecordKind,
	f RecordFilter,
) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	where, args := t.where(f)
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+t.name+where, args...); err != nil {
		return 0, fmt.Errorf("counting %s: %w", kind, err)
	}
	return n, nil
}

// GetRecord returns a single record, or ErrNotFound.
func (s *SQLiteStore) GetRecord(
	ctx context.Context,
	kind model.RecordKind,
	id string,
) (model.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name + " WHERE id = ?"
	recs, err := selectKind(ctx, s.db, kind, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", kind, id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return recs[0], nil
}

// CreateRecord inserts a new record. The caller assigns the id, status and
// creation time.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec model.Record) error {
	kind := rec.GetKind()
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	if rec.GetID() == "" {
		return fmt.Errorf("creating %s: empty id", kind)
	}

	named := make([]string, len(t.columns))
	for i, c := range t.columns {
		named[i] = ":" + c
	}
	query := "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" +
		strings.Join(named, ", ") + ")"

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("creating %s %s: %w", kind, rec.GetID(), err)
	}
	return nil
}

// UpdateStatus moves a record to status, storing reply in the kind's reply
// column when it has one. It returns the updated record.
func (s *SQLiteStore) UpdateStatus(
	ctx context.Context,
	kind model.RecordKind,
	id, status, reply string,
) (model.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if !ValidStatus(kind, status) {
		return nil, fmt.Errorf("%w %q for %s", ErrInvalidStatus, status, kind)
	}

	query := "UPDATE " + t.name + " SET status = ?"
	args := []interface{}{status}
	if reply != "" && t.reply != "" {
		query += ", " + t.reply + " = ?"
		args = append(args, reply)
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return s.GetRecord(ctx, kind, id)
}

// ErrInvalidStatus is returned for a status the kind never takes.
var ErrInvalidStatus = errors.New("invalid status")

// ValidStatus reports whether status is one a record of kind can hold.
func ValidStatus(kind model.RecordKind, status string) bool {
	if status == model.InitialStatus(kind) {
		return true
	}
	for _, a := range []model.Action{model.ActionApprove, model.ActionReject} {
		if to, _, ok := model.Transition(kind, a); ok && to == status {
			return true
		}
	}
	return false
}

func selectKind(
	ctx context.Context,
	db *sqlx.DB,
	kind model.RecordKind,
	query string,
	args ...interface{},
) ([]model.Record, error) {
	switch kind {
	case model.KindEnquiry:
		return selectAs[model.Enquiry](ctx, db, query, args)
	case model.KindContactMessage:
		return selectAs[model.ContactMessage](ctx, db, query, args)
	case model.KindReportedProduct:
		return selectAs[model.ReportedProduct](ctx, db, query, args)
	case model.KindUserFAQ:
		return selectAs[model.UserFAQ](ctx, db, query, args)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

func selectAs[T model.Record](
	ctx context.Context,
	db *sqlx.DB,
	query string,
	args []interface{},
) ([]model.Record, error) {
	var rows []T
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []model.Record{}, nil
		}
		return nil, err
	}
	out := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out, nil
}

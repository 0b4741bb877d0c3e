// Package store persists the development backend's inbox records and
// operator accounts in SQLite.
package store

import (
	"context"
	"errors"

	"github.com/nhle/certconsole/internal/model"
)

// ErrNotFound is returned when a record or operator does not exist.
var ErrNotFound = errors.New("not found")

// RecordFilter controls filtering and pagination for record queries.
type RecordFilter struct {
	Status string // exact status, or "" for all
	Query  string // substring match on the searchable text columns
	Limit  int
	Offset int
}

// Store defines the persistence interface used by the dev server.
type Store interface {
	// === Records ===

	ListRecords(ctx context.Context, kind model.RecordKind, f RecordFilter) ([]model.Record, error)
	CountRecords(ctx context.Context, kind model.RecordKind, f RecordFilter) (int, error)
	GetRecord(ctx context.Context, kind model.RecordKind, id string) (model.Record, error)
	CreateRecord(ctx context.Context, rec model.Record) error
	UpdateStatus(ctx context.Context, kind model.RecordKind, id, status, reply string) (model.Record, error)

	// === Operators ===

	CreateOperator(ctx context.Context, email, password string) error
	Authenticate(ctx context.Context, email, password string) error
}

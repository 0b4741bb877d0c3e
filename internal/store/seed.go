package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/certconsole/internal/model"
)

// Default operator created by Seed.
const (
	SeedOperatorEmail    = "admin@certconsole.local"
	SeedOperatorPassword = "admin"
)

// Seed fills an empty database with an operator account and a handful of
// records of each kind, spread over the hours before now.
func Seed(ctx context.Context, s Store, now time.Time) error {
	if err := s.CreateOperator(ctx, SeedOperatorEmail, SeedOperatorPassword); err != nil {
		return err
	}

	at := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour).UTC() }
	id := func() string { return uuid.NewString() }

	recs := []model.Record{
		model.Enquiry{
			ID:           id(),
			Name:         "Ana Ruiz",
			Email:        "ana@acme.test",
			Organisation: "Acme Foods",
			Subject:      "Organic certification timeline",
			Message:      "How long does the audit take?",
			Status:       model.StatusOpen,
			CreatedAt:    at(2),
		},
		model.Enquiry{
			ID:           id(),
			Name:         "Li Wei",
			Email:        "li@greenleaf.test",
			Organisation: "Greenleaf",
			Subject:      "Renewal fees",
			Message:      "Are renewal fees the same as the first year?",
			Status:       model.StatusClosed,
			CreatedAt:    at(30),
		},

		model.ContactMessage{
			ID:        id(),
			Name:      "Sam Patel",
			Email:     "sam@example.test",
			Message:   "Your label lookup page returns an error for code 4471.",
			Status:    model.StatusPending,
			CreatedAt: at(1),
		},
		model.ContactMessage{
			ID:        id(),
			Name:      "Jo Keller",
			Email:     "jo@example.test",
			Message:   "Thanks for the quick answer last week.",
			Reply:     "You're welcome!",
			Status:    model.StatusAnswered,
			CreatedAt: at(50),
		},

		model.ReportedProduct{
			ID:            id(),
			ProductID:     "P-1042",
			ProductName:   "Sunny Oat Milk",
			Reason:        "Label shows an expired certificate number.",
			ReporterEmail: "kim@example.test",
			Status:        model.StatusPending,
			CreatedAt:     at(3),
		},
		model.ReportedProduct{
			ID:            id(),
			ProductID:     "P-0977",
			ProductName:   "Harvest Granola",
			Reason:        "Logo used without licence.",
			ReporterEmail: "max@example.test",
			Status:        model.StatusResolved,
			CreatedAt:     at(72),
		},

		model.UserFAQ{
			ID:          id(),
			Question:    "Can imported goods carry the mark?",
			SubmittedBy: "reader@example.test",
			Status:      model.StatusPending,
			CreatedAt:   at(4),
		},
		model.UserFAQ{
			ID:          id(),
			Question:    "Who audits the auditors?",
			Answer:      "An accreditation body.",
			SubmittedBy: "curious@example.test",
			Status:      model.StatusAccepted,
			CreatedAt:   at(90),
		},
		model.UserFAQ{
			ID:          id(),
			Question:    "asdf",
			SubmittedBy: "spam@example.test",
			Status:      model.StatusRejected,
			CreatedAt:   at(100),
		},
	}

	for _, r := range recs {
		if err := s.CreateRecord(ctx, r); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}
	return nil
}

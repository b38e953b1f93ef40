package repository

import (
	"context"

	"github.com/stena13/Final-project/validation"
)

// PerevalRepositoryInterface defines the methods for pereval data operations
type PerevalRepositoryInterface interface {
	// Create persists a validated submission atomically and returns the new
	// record id. The submitter is upserted by email.
	Create(ctx context.Context, sub *validation.PerevalSubmission) (int64, error)

	// GetByID returns the denormalized record, or ErrPerevalNotFound.
	GetByID(ctx context.Context, id int64) (*Pereval, error)

	// Update applies a partial amendment to a record still in status "new".
	// Returns ErrPerevalNotFound or *NotEditableError when refused.
	Update(ctx context.Context, id int64, upd *validation.PerevalUpdate) error

	// ListByEmail returns the submitter's records, newest date_added first.
	// An unknown email yields an empty slice, not an error.
	ListByEmail(ctx context.Context, email string) ([]Pereval, error)
}

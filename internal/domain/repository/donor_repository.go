package repository

import (
	"context"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

// DonorRepository persists donor identity. Writes are keyed on email so
// concurrent deliveries converge onto one row.
type DonorRepository interface {
	// Upsert inserts the donor or, on an email conflict, updates the
	// identity fields and returns the stored row.
	Upsert(ctx context.Context, donor *model.Donor) (*model.Donor, error)
	GetByEmail(ctx context.Context, email string) (*model.Donor, error)
	// SetMonthlyDonor flags (or unflags) a donor as a recurring giver.
	// A missing donor is a soft no-op.
	SetMonthlyDonor(ctx context.Context, email string, active bool) error
}

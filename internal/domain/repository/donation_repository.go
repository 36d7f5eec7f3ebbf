package repository

import (
	"context"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

// DonationRepository persists contributions keyed on (ext_id, ext_source).
// All writes are atomic keyed upserts or conditional updates; callers never
// read-then-write to decide uniqueness.
type DonationRepository interface {
	// Upsert inserts the donation or updates the existing row for the same
	// external id. The update is guarded by the status transition table, so
	// e.g. a disputed row is never overwritten by a redelivered success
	// event. Returns the stored row either way.
	Upsert(ctx context.Context, donation *model.Donation) (*model.Donation, error)
	GetByExternalID(ctx context.Context, extID string, source model.DonationSource) (*model.Donation, error)
	// TransitionStatus conditionally moves the donation identified by its
	// external id to target, merging extra metadata. Returns false when no
	// row matched, either because the donation does not exist or because
	// the move is not an allowed transition.
	TransitionStatus(ctx context.Context, extID string, source model.DonationSource, target model.DonationStatus, metadata model.JSONB) (bool, error)
	// RecentSucceeded returns succeeded donations newest-first by donated_at.
	RecentSucceeded(ctx context.Context, limit int) ([]model.Donation, error)
}

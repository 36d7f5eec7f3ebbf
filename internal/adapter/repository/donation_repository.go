package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reliefworks/donation-service/internal/domain/model"
	domainRepo "github.com/reliefworks/donation-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type donationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB, logger *zap.Logger) domainRepo.DonationRepository {
	return &donationRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the donation or updates the row holding the same
// (ext_id, ext_source). The conflict update carries a WHERE guard built from
// the transition table, so the whole decision happens in one statement and
// concurrent deliveries converge without a read-then-write race.
func (r *donationRepository) Upsert(ctx context.Context, donation *model.Donation) (*model.Donation, error) {
	sources := model.TransitionSources(donation.Status)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ext_id"}, {Name: "ext_source"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"donor_id",
				"amount_cents",
				"currency",
				"frequency",
				"status",
				"method",
				"campaign",
				"referral_code",
				"donated_at",
				"processed_at",
				"metadata",
				"updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "donations.status IN ?", Vars: []interface{}{statusList(sources)}},
			}},
		}, clause.Returning{}).
		Create(donation)

	if result.Error != nil {
		r.logger.Error("Failed to upsert donation",
			zap.String("ext_id", donation.ExtID),
			zap.String("ext_source", string(donation.ExtSource)),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to upsert donation: %w", result.Error)
	}

	// The guard rejected the update (e.g. success redelivered for a disputed
	// row). Surface the stored row instead.
	if result.RowsAffected == 0 {
		r.logger.Warn("Donation upsert blocked by status guard",
			zap.String("ext_id", donation.ExtID),
			zap.String("ext_source", string(donation.ExtSource)),
			zap.String("target_status", string(donation.Status)))
		return r.GetByExternalID(ctx, donation.ExtID, donation.ExtSource)
	}

	return donation, nil
}

// GetByExternalID retrieves a donation by its provider id
func (r *donationRepository) GetByExternalID(ctx context.Context, extID string, source model.DonationSource) (*model.Donation, error) {
	var donation model.Donation

	err := r.db.WithContext(ctx).
		Where("ext_id = ? AND ext_source = ?", extID, source).
		First(&donation).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get donation by external ID",
			zap.String("ext_id", extID),
			zap.String("ext_source", string(source)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}

	return &donation, nil
}

// TransitionStatus moves the donation to target with a single conditional
// UPDATE. The WHERE status IN (...) guard enforces the transition table
// atomically; a blocked move and a missing row both report false.
func (r *donationRepository) TransitionStatus(ctx context.Context, extID string, source model.DonationSource, target model.DonationStatus, metadata model.JSONB) (bool, error) {
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": time.Now(),
	}
	if metadata != nil {
		updates["metadata"] = metadata
	}

	result := r.db.WithContext(ctx).
		Model(&model.Donation{}).
		Where("ext_id = ? AND ext_source = ? AND status IN ?",
			extID, source, statusList(model.TransitionSources(target))).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to transition donation status",
			zap.String("ext_id", extID),
			zap.String("ext_source", string(source)),
			zap.String("target_status", string(target)),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to transition donation status: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// RecentSucceeded returns succeeded donations newest-first by donated_at
func (r *donationRepository) RecentSucceeded(ctx context.Context, limit int) ([]model.Donation, error) {
	var donations []model.Donation

	err := r.db.WithContext(ctx).
		Preload("Donor").
		Where("status = ?", model.DonationStatusSucceeded).
		Order("donated_at DESC").
		Limit(limit).
		Find(&donations).Error

	if err != nil {
		r.logger.Error("Failed to list recent donations",
			zap.Int("limit", limit),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list recent donations: %w", err)
	}

	return donations, nil
}

func statusList(statuses []model.DonationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

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

type donorRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDonorRepository creates a new donor repository
func NewDonorRepository(db *gorm.DB, logger *zap.Logger) domainRepo.DonorRepository {
	return &donorRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the donor or updates identity fields on an email conflict.
// The RETURNING clause backfills the stored row, including the id of a
// pre-existing donor.
func (r *donorRepository) Upsert(ctx context.Context, donor *model.Donor) (*model.Donor, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"first_name",
				"last_name",
				"phone",
				"country",
				"referred_by",
				"consent_email",
				"consent_timestamp",
				"consent_source",
				"updated_at",
			}),
		}, clause.Returning{}).
		Create(donor).Error

	if err != nil {
		r.logger.Error("Failed to upsert donor",
			zap.String("email", donor.Email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to upsert donor: %w", err)
	}

	return donor, nil
}

// GetByEmail retrieves a donor by email
func (r *donorRepository) GetByEmail(ctx context.Context, email string) (*model.Donor, error) {
	var donor model.Donor

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&donor).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get donor by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}

	return &donor, nil
}

// SetMonthlyDonor flags or unflags a donor as a recurring giver. Subscription
// events can reference donors that never completed a donation here, so a
// missing row is logged and ignored.
func (r *donorRepository) SetMonthlyDonor(ctx context.Context, email string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Donor{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"is_monthly_donor": active,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to update monthly donor flag",
			zap.String("email", email),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update monthly donor flag: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Warn("Monthly donor flag update matched no donor",
			zap.String("email", email))
	}

	return nil
}

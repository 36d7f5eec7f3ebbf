package repository

import (
	"context"
	"fmt"

	"github.com/reliefworks/donation-service/internal/domain/model"
	domainRepo "github.com/reliefworks/donation-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type referralRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *gorm.DB, logger *zap.Logger) domainRepo.ReferralRepository {
	return &referralRepository{
		db:     db,
		logger: logger,
	}
}

// RecordConversion inserts the referral once per (referrer_code,
// referred_email). ON CONFLICT DO NOTHING keeps redelivered webhooks from
// attributing the same conversion twice.
func (r *referralRepository) RecordConversion(ctx context.Context, referral *model.Referral) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referrer_code"}, {Name: "referred_email"}},
			DoNothing: true,
		}).
		Create(referral).Error

	if err != nil {
		r.logger.Error("Failed to record referral conversion",
			zap.String("referrer_code", referral.ReferrerCode),
			zap.String("referred_email", referral.ReferredEmail),
			zap.Error(err))
		return fmt.Errorf("failed to record referral conversion: %w", err)
	}

	return nil
}

package repository

import (
	"context"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

// ReferralRepository records referral attribution.
type ReferralRepository interface {
	// RecordConversion inserts the referral once per
	// (referrer_code, referred_email); repeated deliveries are no-ops.
	RecordConversion(ctx context.Context, referral *model.Referral) error
}

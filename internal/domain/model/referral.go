package model

import (
	"time"

	"github.com/google/uuid"
)

// Referral records attribution between an ambassador's referral code and a
// converted donor. One row exists per (referrer_code, referred_email); the
// unique index makes the conversion insert a guarded "insert if not exists".
type Referral struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerCode    string     `gorm:"not null;size:100;uniqueIndex:idx_referrals_code_email" json:"referrer_code"`
	ReferredEmail   string     `gorm:"not null;size:255;uniqueIndex:idx_referrals_code_email" json:"referred_email"`
	ReferredDonorID uuid.UUID  `gorm:"type:uuid;not null" json:"referred_donor_id"`
	Converted       bool       `gorm:"default:false" json:"converted"`
	FirstDonationID *int64     `json:"first_donation_id,omitempty"`
	ConversionDate  *time.Time `json:"conversion_date,omitempty"`
	CreatedAt       time.Time  `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Referral) TableName() string {
	return "referrals"
}

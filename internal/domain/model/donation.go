package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DonationStatus represents the lifecycle status of a donation
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusSucceeded DonationStatus = "succeeded"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusDisputed  DonationStatus = "disputed"
)

// Scan implements sql.Scanner interface
func (s *DonationStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = DonationStatus(v)
	case []byte:
		*s = DonationStatus(v)
	default:
		*s = DonationStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s DonationStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// allowedTransitions is the status state machine. Webhook events may arrive
// out of order; a move not listed here is logged and skipped rather than
// silently overwriting the row.
var allowedTransitions = map[DonationStatus][]DonationStatus{
	DonationStatusPending:   {DonationStatusSucceeded, DonationStatusFailed},
	DonationStatusFailed:    {DonationStatusSucceeded},
	DonationStatusSucceeded: {DonationStatusDisputed},
	DonationStatusDisputed:  {},
}

// CanTransitionTo reports whether the status may move to target. A
// self-transition is always allowed so redelivered provider events stay
// idempotent.
func (s DonationStatus) CanTransitionTo(target DonationStatus) bool {
	if s == target {
		return true
	}
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which target is reachable,
// including target itself. Repositories use it to build the atomic
// "WHERE status IN (...)" guard on conditional writes.
func TransitionSources(target DonationStatus) []DonationStatus {
	sources := []DonationStatus{target}
	for _, from := range []DonationStatus{
		DonationStatusPending,
		DonationStatusSucceeded,
		DonationStatusFailed,
		DonationStatusDisputed,
	} {
		if from == target {
			continue
		}
		for _, t := range allowedTransitions[from] {
			if t == target {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// DonationFrequency represents the giving cadence of a donation
type DonationFrequency string

const (
	FrequencyOneTime DonationFrequency = "one_time"
	FrequencyMonthly DonationFrequency = "monthly"
	FrequencyOther   DonationFrequency = "other"
)

// DonationSource identifies the payment provider that produced a donation
type DonationSource string

const (
	SourceStripe   DonationSource = "stripe"
	SourceDonorbox DonationSource = "donorbox"
)

// Donation represents a single financial contribution. The pair
// (ext_id, ext_source) is the idempotency key: redelivered provider events
// converge onto one row.
type Donation struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	DonorID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"donor_id"`
	ExtID        string            `gorm:"column:ext_id;not null;size:255;uniqueIndex:idx_donations_ext_id_source" json:"ext_id"`
	ExtSource    DonationSource    `gorm:"column:ext_source;not null;size:50;uniqueIndex:idx_donations_ext_id_source" json:"ext_source"`
	AmountCents  int64             `gorm:"not null" json:"amount_cents"`
	Currency     string            `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Frequency    DonationFrequency `gorm:"size:20;not null;default:'one_time'" json:"frequency"`
	Status       DonationStatus    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Method       string            `gorm:"size:50" json:"method"`
	Campaign     *string           `gorm:"size:255" json:"campaign,omitempty"`
	ReferralCode *string           `gorm:"size:100" json:"referral_code,omitempty"`
	DonatedAt    time.Time         `gorm:"not null;index" json:"donated_at"`
	ProcessedAt  *time.Time        `json:"processed_at,omitempty"`
	Metadata     JSONB             `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"default:now()" json:"updated_at"`

	// Relations
	Donor *Donor `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
}

// TableName specifies the table name for GORM
func (Donation) TableName() string {
	return "donations"
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}

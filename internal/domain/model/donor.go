package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Donor represents a supporter record, deduplicated by email.
type Donor struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email            string     `gorm:"unique;not null;size:255" json:"email"`
	FirstName        string     `gorm:"size:100" json:"first_name"`
	LastName         string     `gorm:"size:100" json:"last_name"`
	Phone            *string    `gorm:"size:50" json:"phone,omitempty"`
	Country          *string    `gorm:"size:100" json:"country,omitempty"`
	ReferredBy       *string    `gorm:"size:100" json:"referred_by,omitempty"`
	ReferralCode     *string    `gorm:"unique;size:100" json:"referral_code,omitempty"`
	ConsentEmail     bool       `gorm:"default:false" json:"consent_email"`
	ConsentTimestamp *time.Time `json:"consent_timestamp,omitempty"`
	ConsentSource    *string    `gorm:"size:100" json:"consent_source,omitempty"`
	IsMonthlyDonor   bool       `gorm:"default:false" json:"is_monthly_donor"`
	CreatedAt        time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Donor) TableName() string {
	return "donors"
}

// DisplayName returns the privacy-truncated public name: first name plus
// last-name initial, or the given fallback when no first name is known.
func DisplayName(firstName, lastName, fallback string) string {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return fallback
	}
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return firstName
	}
	initial := []rune(lastName)[0]
	return firstName + " " + string(initial) + "."
}

package model

import "time"

// KPISnapshot is a point-in-time summary row, one per calendar date,
// produced by the kpi-snapshot job. The metrics API only reads snapshots;
// it never computes them on demand.
type KPISnapshot struct {
	ID                           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotDate                 time.Time `gorm:"type:date;not null;uniqueIndex" json:"snapshot_date"`
	TotalRaisedCents             int64     `gorm:"not null;default:0" json:"total_raised_cents"`
	DonorsCount                  int64     `gorm:"not null;default:0" json:"donors_count"`
	RecurringDonorsCount         int64     `gorm:"not null;default:0" json:"recurring_donors_count"`
	AvgGiftCents                 int64     `gorm:"not null;default:0" json:"avg_gift_cents"`
	MonthlyRecurringRevenueCents int64     `gorm:"not null;default:0" json:"monthly_recurring_revenue_cents"`
	TotalDonationsCount          int64     `gorm:"not null;default:0" json:"total_donations_count"`
	CreatedAt                    time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (KPISnapshot) TableName() string {
	return "kpi_snapshots"
}

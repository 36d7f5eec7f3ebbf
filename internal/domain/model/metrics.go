package model

// CampaignMetrics is the single aggregate row read from the
// v_campaign_metrics view.
type CampaignMetrics struct {
	TotalRaisedCents             int64 `json:"total_raised_cents"`
	DonorsCount                  int64 `json:"donors_count"`
	RecurringDonorsCount         int64 `json:"recurring_donors_count"`
	AvgGiftCents                 int64 `json:"avg_gift_cents"`
	MonthlyRecurringRevenueCents int64 `json:"monthly_recurring_revenue_cents"`
	TotalDonationsCount          int64 `json:"total_donations_count"`
	NewDonors30d                 int64 `gorm:"column:new_donors_30d" json:"new_donors_30d"`
	Donations24h                 int64 `gorm:"column:donations_24h" json:"donations_24h"`
}

// LeaderboardEntry is one row of the v_referral_leaderboard view.
type LeaderboardEntry struct {
	ReferralCode       string `json:"referral_code"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	TotalReferrals     int64  `json:"total_referrals"`
	ConvertedReferrals int64  `json:"converted_referrals"`
	TotalReferredCents int64  `json:"total_referred_cents"`
}

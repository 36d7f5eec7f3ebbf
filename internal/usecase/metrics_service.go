package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrSnapshotNotFound is returned when no KPI snapshot exists for the
// requested date.
var ErrSnapshotNotFound = errors.New("kpi snapshot not found")

const (
	defaultRecentLimit      = 25
	maxRecentLimit          = 100
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100

	anonymousDonor      = "Anonymous"
	anonymousAmbassador = "Anonymous Ambassador"

	cacheKeySummary     = "metrics:summary"
	cacheKeyRecent      = "metrics:recent"
	cacheKeyKPI         = "metrics:kpi"
	cacheKeyLeaderboard = "metrics:leaderboard"
	cacheKeyProgress    = "metrics:progress"

	cacheTTLSummary     = 60 * time.Second
	cacheTTLRecent      = 30 * time.Second
	cacheTTLKPI         = time.Hour
	cacheTTLLeaderboard = 5 * time.Minute
	cacheTTLProgress    = 60 * time.Second
)

// SummaryData is the campaign-wide aggregate surface. Cents fields are
// exact; the string fields are display-ready dollar amounts.
type SummaryData struct {
	TotalRaisedCents             int64   `json:"total_raised_cents"`
	TotalRaised                  string  `json:"total_raised"`
	DonorsCount                  int64   `json:"donors_count"`
	RecurringDonorsCount         int64   `json:"recurring_donors_count"`
	AvgGiftCents                 int64   `json:"avg_gift_cents"`
	AvgGift                      string  `json:"avg_gift"`
	MonthlyRecurringRevenueCents int64   `json:"monthly_recurring_revenue_cents"`
	MonthlyRecurringRevenue      string  `json:"monthly_recurring_revenue"`
	TotalDonationsCount          int64   `json:"total_donations_count"`
	NewDonors30d                 int64   `json:"new_donors_30d"`
	Donations24h                 int64   `json:"donations_24h"`
	GoalCents                    int64   `json:"goal_cents"`
	GoalUSD                      string  `json:"goal_usd"`
	ProgressPercentage           float64 `json:"progress_percentage"`
}

// RecentDonation is a single public ticker entry. Name is privacy-truncated
// to first name plus last initial.
type RecentDonation struct {
	Name        string    `json:"name"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Frequency   string    `json:"frequency"`
	Campaign    *string   `json:"campaign,omitempty"`
	DonatedAt   time.Time `json:"donated_at"`
}

// KPIData is a point-in-time snapshot of the campaign aggregates.
type KPIData struct {
	SnapshotDate                 string `json:"snapshot_date"`
	TotalRaisedCents             int64  `json:"total_raised_cents"`
	TotalRaised                  string `json:"total_raised"`
	DonorsCount                  int64  `json:"donors_count"`
	RecurringDonorsCount         int64  `json:"recurring_donors_count"`
	AvgGiftCents                 int64  `json:"avg_gift_cents"`
	AvgGift                      string `json:"avg_gift"`
	MonthlyRecurringRevenueCents int64  `json:"monthly_recurring_revenue_cents"`
	MonthlyRecurringRevenue      string `json:"monthly_recurring_revenue"`
	TotalDonationsCount          int64  `json:"total_donations_count"`
}

// LeaderboardRow is one ranked referrer on the public leaderboard.
type LeaderboardRow struct {
	Rank               int    `json:"rank"`
	ReferralCode       string `json:"referral_code"`
	Name               string `json:"name"`
	TotalReferrals     int64  `json:"total_referrals"`
	ConvertedReferrals int64  `json:"converted_referrals"`
	TotalReferredCents int64  `json:"total_referred_cents"`
	TotalReferred      string `json:"total_referred"`
}

// ProgressFormatted carries the grouped display strings for the thermometer.
type ProgressFormatted struct {
	Current string `json:"current"`
	Goal    string `json:"goal"`
}

// ProgressData is the fundraising thermometer payload. Amounts are dollar
// strings; Percentage is progress toward the configured goal with two
// decimal places.
type ProgressData struct {
	CurrentAmount string            `json:"current_amount"`
	GoalAmount    string            `json:"goal_amount"`
	DonorCount    int64             `json:"donor_count"`
	Percentage    string            `json:"percentage"`
	Formatted     ProgressFormatted `json:"formatted"`
}

// MetricsService serves the public campaign metrics endpoints from the
// precomputed database views, with an optional short-TTL cache in front.
type MetricsService struct {
	metricsRepo  repository.MetricsRepository
	donationRepo repository.DonationRepository
	cache        repository.CacheRepository
	goalCents    int64
	logger       *zap.Logger
	printer      *message.Printer
}

// NewMetricsService creates a new metrics service. cache may be nil, in
// which case every read goes to the database.
func NewMetricsService(
	metricsRepo repository.MetricsRepository,
	donationRepo repository.DonationRepository,
	cache repository.CacheRepository,
	goalCents int64,
	logger *zap.Logger,
) *MetricsService {
	return &MetricsService{
		metricsRepo:  metricsRepo,
		donationRepo: donationRepo,
		cache:        cache,
		goalCents:    goalCents,
		logger:       logger,
		printer:      message.NewPrinter(language.English),
	}
}

// Summary returns the campaign-wide aggregates.
func (s *MetricsService) Summary(ctx context.Context) (*SummaryData, error) {
	var cached SummaryData
	if s.cacheGet(ctx, cacheKeySummary, &cached) {
		return &cached, nil
	}

	metrics, err := s.metricsRepo.CampaignMetrics(ctx)
	if err != nil {
		return nil, err
	}

	data := &SummaryData{
		TotalRaisedCents:             metrics.TotalRaisedCents,
		TotalRaised:                  centsToUSD(metrics.TotalRaisedCents),
		DonorsCount:                  metrics.DonorsCount,
		RecurringDonorsCount:         metrics.RecurringDonorsCount,
		AvgGiftCents:                 metrics.AvgGiftCents,
		AvgGift:                      centsToUSD(metrics.AvgGiftCents),
		MonthlyRecurringRevenueCents: metrics.MonthlyRecurringRevenueCents,
		MonthlyRecurringRevenue:      centsToUSD(metrics.MonthlyRecurringRevenueCents),
		TotalDonationsCount:          metrics.TotalDonationsCount,
		NewDonors30d:                 metrics.NewDonors30d,
		Donations24h:                 metrics.Donations24h,
		GoalCents:                    s.goalCents,
		GoalUSD:                      centsToUSD(s.goalCents),
	}
	if s.goalCents > 0 {
		data.ProgressPercentage = float64(metrics.TotalRaisedCents) / float64(s.goalCents) * 100
	}

	s.cacheSet(ctx, cacheKeySummary, data, cacheTTLSummary)
	return data, nil
}

// RecentDonations returns the newest succeeded donations with donor names
// truncated for public display. limit is clamped to [1, 100]; zero or
// negative means the default of 25.
func (s *MetricsService) RecentDonations(ctx context.Context, limit int) ([]RecentDonation, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	cacheKey := fmt.Sprintf("%s:%d", cacheKeyRecent, limit)
	var cached []RecentDonation
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	donations, err := s.donationRepo.RecentSucceeded(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]RecentDonation, 0, len(donations))
	for _, d := range donations {
		name := anonymousDonor
		if d.Donor != nil {
			name = model.DisplayName(d.Donor.FirstName, d.Donor.LastName, anonymousDonor)
		}
		result = append(result, RecentDonation{
			Name:        name,
			AmountCents: d.AmountCents,
			Amount:      centsToUSD(d.AmountCents),
			Currency:    d.Currency,
			Frequency:   string(d.Frequency),
			Campaign:    d.Campaign,
			DonatedAt:   d.DonatedAt,
		})
	}

	s.cacheSet(ctx, cacheKey, result, cacheTTLRecent)
	return result, nil
}

// KPI returns the stored snapshot for the given calendar date, or
// ErrSnapshotNotFound when none exists.
func (s *MetricsService) KPI(ctx context.Context, date time.Time) (*KPIData, error) {
	dateKey := date.Format("2006-01-02")
	cacheKey := cacheKeyKPI + ":" + dateKey

	var cached KPIData
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	snapshot, err := s.metricsRepo.SnapshotByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrSnapshotNotFound
	}

	data := &KPIData{
		SnapshotDate:                 snapshot.SnapshotDate.Format("2006-01-02"),
		TotalRaisedCents:             snapshot.TotalRaisedCents,
		TotalRaised:                  centsToUSD(snapshot.TotalRaisedCents),
		DonorsCount:                  snapshot.DonorsCount,
		RecurringDonorsCount:         snapshot.RecurringDonorsCount,
		AvgGiftCents:                 snapshot.AvgGiftCents,
		AvgGift:                      centsToUSD(snapshot.AvgGiftCents),
		MonthlyRecurringRevenueCents: snapshot.MonthlyRecurringRevenueCents,
		MonthlyRecurringRevenue:      centsToUSD(snapshot.MonthlyRecurringRevenueCents),
		TotalDonationsCount:          snapshot.TotalDonationsCount,
	}

	s.cacheSet(ctx, cacheKey, data, cacheTTLKPI)
	return data, nil
}

// Leaderboard returns the top referrers ranked by referred volume. limit is
// clamped to [1, 100]; zero or negative means the default of 10.
func (s *MetricsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	cacheKey := fmt.Sprintf("%s:%d", cacheKeyLeaderboard, limit)
	var cached []LeaderboardRow
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	entries, err := s.metricsRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		result = append(result, LeaderboardRow{
			Rank:               i + 1,
			ReferralCode:       e.ReferralCode,
			Name:               model.DisplayName(e.FirstName, e.LastName, anonymousAmbassador),
			TotalReferrals:     e.TotalReferrals,
			ConvertedReferrals: e.ConvertedReferrals,
			TotalReferredCents: e.TotalReferredCents,
			TotalReferred:      centsToUSD(e.TotalReferredCents),
		})
	}

	s.cacheSet(ctx, cacheKey, result, cacheTTLLeaderboard)
	return result, nil
}

// Progress returns the fundraising thermometer against the configured goal.
func (s *MetricsService) Progress(ctx context.Context) (*ProgressData, error) {
	var cached ProgressData
	if s.cacheGet(ctx, cacheKeyProgress, &cached) {
		return &cached, nil
	}

	metrics, err := s.metricsRepo.CampaignMetrics(ctx)
	if err != nil {
		return nil, err
	}

	percentage := "0.00"
	if s.goalCents > 0 {
		percentage = decimal.NewFromInt(metrics.TotalRaisedCents).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(s.goalCents)).
			StringFixed(2)
	}

	data := &ProgressData{
		CurrentAmount: centsToUSD(metrics.TotalRaisedCents),
		GoalAmount:    decimal.NewFromInt(s.goalCents).Div(decimal.NewFromInt(100)).StringFixed(0),
		DonorCount:    metrics.DonorsCount,
		Percentage:    percentage,
		Formatted: ProgressFormatted{
			Current: s.formatDollars(metrics.TotalRaisedCents),
			Goal:    s.formatDollars(s.goalCents),
		},
	}

	s.cacheSet(ctx, cacheKeyProgress, data, cacheTTLProgress)
	return data, nil
}

// cacheGet fills dest from the cache and reports a hit. Cache errors are
// logged and treated as misses.
func (s *MetricsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Metrics cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if raw == nil {
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("Metrics cache entry is malformed", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

func (s *MetricsService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Failed to marshal metrics cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn("Metrics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// formatDollars renders whole dollars with digit grouping, e.g. "$50,000,000".
func (s *MetricsService) formatDollars(cents int64) string {
	return s.printer.Sprintf("$%d", cents/100)
}

// centsToUSD renders an exact dollar amount with two decimal places.
func centsToUSD(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

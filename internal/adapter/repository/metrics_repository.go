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

type metricsRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *gorm.DB, logger *zap.Logger) domainRepo.MetricsRepository {
	return &metricsRepository{
		db:     db,
		logger: logger,
	}
}

// CampaignMetrics reads the single aggregate row from v_campaign_metrics
func (r *metricsRepository) CampaignMetrics(ctx context.Context) (*model.CampaignMetrics, error) {
	var metrics model.CampaignMetrics

	err := r.db.WithContext(ctx).
		Raw("SELECT * FROM v_campaign_metrics").
		Scan(&metrics).Error

	if err != nil {
		r.logger.Error("Failed to read campaign metrics", zap.Error(err))
		return nil, fmt.Errorf("failed to read campaign metrics: %w", err)
	}

	return &metrics, nil
}

// SnapshotByDate returns the KPI snapshot for a calendar date, or (nil, nil)
// when no snapshot exists for it.
func (r *metricsRepository) SnapshotByDate(ctx context.Context, date time.Time) (*model.KPISnapshot, error) {
	var snapshot model.KPISnapshot

	err := r.db.WithContext(ctx).
		Where("snapshot_date = ?", date.Format("2006-01-02")).
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get KPI snapshot",
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get KPI snapshot: %w", err)
	}

	return &snapshot, nil
}

// UpsertSnapshot writes one snapshot per date; rerunning the snapshot job
// for the same date overwrites the numbers.
func (r *metricsRepository) UpsertSnapshot(ctx context.Context, snapshot *model.KPISnapshot) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_raised_cents",
				"donors_count",
				"recurring_donors_count",
				"avg_gift_cents",
				"monthly_recurring_revenue_cents",
				"total_donations_count",
			}),
		}).
		Create(snapshot).Error

	if err != nil {
		r.logger.Error("Failed to upsert KPI snapshot",
			zap.Time("snapshot_date", snapshot.SnapshotDate),
			zap.Error(err))
		return fmt.Errorf("failed to upsert KPI snapshot: %w", err)
	}

	return nil
}

// Leaderboard reads the ranked referral rows from v_referral_leaderboard
func (r *metricsRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry

	err := r.db.WithContext(ctx).
		Raw("SELECT * FROM v_referral_leaderboard LIMIT ?", limit).
		Scan(&entries).Error

	if err != nil {
		r.logger.Error("Failed to read referral leaderboard",
			zap.Int("limit", limit),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read referral leaderboard: %w", err)
	}

	return entries, nil
}

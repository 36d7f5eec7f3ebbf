package repository

import (
	"context"
	"time"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

// MetricsRepository reads precomputed aggregates. The summary numbers come
// from database views, not from scanning raw donations per request.
type MetricsRepository interface {
	CampaignMetrics(ctx context.Context) (*model.CampaignMetrics, error)
	// SnapshotByDate returns the KPI snapshot for the calendar date, or
	// (nil, nil) when none exists.
	SnapshotByDate(ctx context.Context, date time.Time) (*model.KPISnapshot, error)
	// UpsertSnapshot writes one snapshot per date; rerunning the job for
	// the same date overwrites the numbers.
	UpsertSnapshot(ctx context.Context, snapshot *model.KPISnapshot) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

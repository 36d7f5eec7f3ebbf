package main

import (
	"context"
	"log"
	"time"

	"github.com/reliefworks/donation-service/internal/config"
	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/infrastructure/database"
	"go.uber.org/zap"
)

// kpi-snapshot captures the current campaign aggregates as today's KPI row.
// It is meant to run once a day from a scheduler; rerunning it for the same
// date overwrites the numbers.
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, logger)

	ctx := context.Background()

	metrics, err := repos.Metrics.CampaignMetrics(ctx)
	if err != nil {
		logger.Fatal("Failed to read campaign metrics", zap.Error(err))
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	snapshot := &model.KPISnapshot{
		SnapshotDate:                 today,
		TotalRaisedCents:             metrics.TotalRaisedCents,
		DonorsCount:                  metrics.DonorsCount,
		RecurringDonorsCount:         metrics.RecurringDonorsCount,
		AvgGiftCents:                 metrics.AvgGiftCents,
		MonthlyRecurringRevenueCents: metrics.MonthlyRecurringRevenueCents,
		TotalDonationsCount:          metrics.TotalDonationsCount,
	}

	if err := repos.Metrics.UpsertSnapshot(ctx, snapshot); err != nil {
		logger.Fatal("Failed to upsert KPI snapshot", zap.Error(err))
	}

	logger.Info("KPI snapshot captured",
		zap.String("snapshot_date", today.Format("2006-01-02")),
		zap.Int64("total_raised_cents", snapshot.TotalRaisedCents),
		zap.Int64("donors_count", snapshot.DonorsCount),
	)
}

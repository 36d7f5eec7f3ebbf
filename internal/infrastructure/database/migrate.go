package database

import (
	"github.com/reliefworks/donation-service/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Create extensions first
	logger.Info("Creating PostgreSQL extensions...")
	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}
	logger.Info("PostgreSQL extensions created successfully")

	// Auto-migrate all models
	logger.Info("Running GORM auto-migrations...")
	err := db.AutoMigrate(
		&model.Donor{},
		&model.Donation{},
		&model.Referral{},
		&model.WebhookEvent{},
		&model.KPISnapshot{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	// Create aggregate views for the metrics endpoints
	logger.Info("Creating metrics views...")
	if err := createMetricsViews(db); err != nil {
		logger.Error("Failed to create metrics views", zap.Error(err))
		return err
	}
	logger.Info("Metrics views created successfully")

	logger.Info("Database migrations completed successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	// gen_random_uuid for donor primary keys
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// createMetricsViews creates the aggregate views the metrics endpoints read.
// Keeping the aggregation in the database means a request never scans raw
// donations in application code.
func createMetricsViews(db *gorm.DB) error {
	campaignMetricsSQL := `
CREATE OR REPLACE VIEW v_campaign_metrics AS
SELECT
    COALESCE(SUM(d.amount_cents) FILTER (WHERE d.status = 'succeeded'), 0)::bigint AS total_raised_cents,
    COUNT(DISTINCT d.donor_id) FILTER (WHERE d.status = 'succeeded')::bigint     AS donors_count,
    (SELECT COUNT(*) FROM donors WHERE is_monthly_donor)::bigint                  AS recurring_donors_count,
    COALESCE(AVG(d.amount_cents) FILTER (WHERE d.status = 'succeeded'), 0)::bigint AS avg_gift_cents,
    COALESCE(SUM(d.amount_cents) FILTER (
        WHERE d.status = 'succeeded' AND d.frequency = 'monthly'), 0)::bigint     AS monthly_recurring_revenue_cents,
    COUNT(*) FILTER (WHERE d.status = 'succeeded')::bigint                        AS total_donations_count,
    (SELECT COUNT(*) FROM donors
        WHERE created_at >= now() - INTERVAL '30 days')::bigint                   AS new_donors_30d,
    COUNT(*) FILTER (
        WHERE d.status = 'succeeded'
        AND d.donated_at >= now() - INTERVAL '24 hours')::bigint                  AS donations_24h
FROM donations d`

	if err := db.Exec(campaignMetricsSQL).Error; err != nil {
		return err
	}

	leaderboardSQL := `
CREATE OR REPLACE VIEW v_referral_leaderboard AS
SELECT
    r.referrer_code                                    AS referral_code,
    COALESCE(amb.first_name, '')                       AS first_name,
    COALESCE(amb.last_name, '')                        AS last_name,
    COUNT(*)::bigint                                   AS total_referrals,
    COUNT(*) FILTER (WHERE r.converted)::bigint        AS converted_referrals,
    COALESCE(SUM(d.amount_cents), 0)::bigint           AS total_referred_cents
FROM referrals r
LEFT JOIN donors amb ON amb.referral_code = r.referrer_code
LEFT JOIN donations d ON d.id = r.first_donation_id AND d.status = 'succeeded'
GROUP BY r.referrer_code, amb.first_name, amb.last_name
ORDER BY converted_referrals DESC, total_referred_cents DESC`

	return db.Exec(leaderboardSQL).Error
}

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

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook audit repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// LogEvent appends the raw delivery to the audit trail. Redelivered Stripe
// events carry the same (source, event_id) and collapse onto the existing
// row via ON CONFLICT DO NOTHING.
func (r *webhookRepository) LogEvent(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)

	if result.Error != nil {
		r.logger.Error("Failed to log webhook event",
			zap.String("source", event.Source),
			zap.String("event_type", event.EventType),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to log webhook event: %w", result.Error)
	}

	if result.RowsAffected == 0 && event.EventID != nil {
		// Duplicate delivery; hand back the original audit row.
		var existing model.WebhookEvent
		err := r.db.WithContext(ctx).
			Where("source = ? AND event_id = ?", event.Source, *event.EventID).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return event, nil
			}
			return nil, fmt.Errorf("failed to get webhook event: %w", err)
		}
		return &existing, nil
	}

	return event, nil
}

// MarkProcessed flags an audit row after its writes committed
func (r *webhookRepository) MarkProcessed(ctx context.Context, id int64) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": &now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.Int64("id", id),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %d", id)
	}

	return nil
}

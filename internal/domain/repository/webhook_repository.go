package repository

import (
	"context"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

// WebhookRepository is the append-only audit trail for inbound webhooks.
type WebhookRepository interface {
	// LogEvent persists the delivery before any interpretation. A duplicate
	// provider event id collapses onto the existing row, which is returned.
	LogEvent(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id int64) error
}

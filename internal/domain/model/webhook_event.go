package model

import "time"

// WebhookEvent is the append-only audit trail of inbound provider webhooks.
// Every delivery is persisted before interpretation, with the signature
// verification outcome; rows for processed deliveries are flagged afterward.
// Stripe deliveries carry the provider event id so duplicates collapse onto
// one row; Donorbox sends no event id and each delivery is logged.
type WebhookEvent struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Source      string     `gorm:"not null;size:50;uniqueIndex:idx_webhook_events_source_event" json:"source"`
	EventID     *string    `gorm:"size:255;uniqueIndex:idx_webhook_events_source_event" json:"event_id,omitempty"`
	EventType   string     `gorm:"not null;size:100;index" json:"event_type"`
	Payload     JSONB      `gorm:"type:jsonb;not null" json:"payload"`
	Signature   string     `gorm:"size:512" json:"signature"`
	Verified    bool       `gorm:"default:false" json:"verified"`
	Processed   bool       `gorm:"default:false;index" json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

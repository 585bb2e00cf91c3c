package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// PendingWebhookEvent is a durable fact recorded when a gateway webhook
// arrives before the payment row it references exists. The settlement
// coordinator consults unprocessed facts when it later creates the row, so a
// webhook that raced the synchronous channel is never lost.
type PendingWebhookEvent struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	EventID           string                 `gorm:"column:event_id;not null;uniqueIndex:uq_pending_webhook_events_event_id"`
	EventType         enums.WebhookEventType `gorm:"column:event_type;not null"`
	ProviderOrderID   string                 `gorm:"column:provider_order_id;not null;index"`
	ProviderPaymentID *string                `gorm:"column:provider_payment_id"`
	FailureReason     *string                `gorm:"column:failure_reason"`
	Payload           json.RawMessage        `gorm:"column:payload;type:jsonb"`
	ProcessedAt       *time.Time             `gorm:"column:processed_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}

package webhooks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

const uniqueEventConstraint = "uq_pending_webhook_events_event_id"

// Repository stores webhook events that arrived before the payment row they
// reference existed. The settlement path drains these facts when it creates
// the row, so an early webhook is deferred rather than dropped.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Record stores the event. Re-recording the same event id is a no-op so
// gateway redelivery stays idempotent.
func (r *Repository) Record(ctx context.Context, event *models.PendingWebhookEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if db.IsUniqueViolation(err, uniqueEventConstraint) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "recording pending webhook event")
	}
	return nil
}

// ListUnprocessed returns deferred events for the provider order, oldest
// first.
func (r *Repository) ListUnprocessed(ctx context.Context, providerOrderID string) ([]models.PendingWebhookEvent, error) {
	var events []models.PendingWebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider_order_id = ? AND processed_at IS NULL", providerOrderID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading pending webhook events")
	}
	return events, nil
}

// MarkProcessed stamps the events as consumed.
func (r *Repository) MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PendingWebhookEvent{}).
		Where("id IN ?", ids).
		Update("processed_at", at).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "marking webhook events processed")
	}
	return nil
}

// PurgeProcessedBefore removes consumed events older than the cutoff.
func (r *Repository) PurgeProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&models.PendingWebhookEvent{})
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodePersistence, result.Error, "purging webhook events")
	}
	return result.RowsAffected, nil
}

package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// PaymentRepository persists gateway payments. The provider_order_id unique
// constraint is the final word on idempotent creation: a second insert for the
// same provider order surfaces as a conflict the settlement path can absorb.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository builds a repository tied to the provided GORM DB.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create inserts the payment, assigning an ID when absent. A duplicate
// provider order id maps to CodeConflict so callers can fall back to the
// existing row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if db.IsUniqueViolation(err, models.UniqueProviderOrderConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment already exists for provider order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "creating payment")
	}
	return payment, nil
}

// FindByProviderOrderID loads the payment keyed by the gateway's order id.
func (r *PaymentRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		First(&payment, "provider_order_id = ?", providerOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading payment")
	}
	return &payment, nil
}

// FindByID loads one payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading payment")
	}
	return &payment, nil
}

// PaymentStateUpdate describes an absolute state to apply to a payment row.
// Nil pointer fields are left untouched.
type PaymentStateUpdate struct {
	Status            enums.PaymentStatus
	ProviderPaymentID *string
	SignatureVerified *bool
	WebhookReceived   *bool
	FailureReason     *string
	OrderID           *uuid.UUID
}

// ApplyState writes an absolute payment state. Updates are idempotent:
// applying the same state twice leaves the row unchanged.
func (r *PaymentRepository) ApplyState(ctx context.Context, paymentID uuid.UUID, update PaymentStateUpdate) error {
	values := map[string]any{"status": update.Status}
	if update.ProviderPaymentID != nil {
		values["provider_payment_id"] = *update.ProviderPaymentID
	}
	if update.SignatureVerified != nil {
		values["signature_verified"] = *update.SignatureVerified
	}
	if update.WebhookReceived != nil {
		values["webhook_received"] = *update.WebhookReceived
	}
	if update.FailureReason != nil {
		values["failure_reason"] = *update.FailureReason
	}
	if update.OrderID != nil {
		values["order_id"] = *update.OrderID
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(values).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "updating payment state")
	}
	return nil
}

// FindPendingBefore lists payments still pending whose provider order was
// opened before the cutoff. The maintenance worker expires these.
func (r *PaymentRepository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing stale pending payments")
	}
	return payments, nil
}

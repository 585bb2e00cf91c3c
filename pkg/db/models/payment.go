package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// UniqueProviderOrderConstraint names the uniqueness guard used by the
// settlement path to detect a lost creation race.
const UniqueProviderOrderConstraint = "uq_payments_provider_order_id"

// Payment tracks a gateway payment. ProviderOrderID is the idempotency key:
// at most one row per provider order ever exists.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	ProviderOrderID   string              `gorm:"column:provider_order_id;not null;uniqueIndex:uq_payments_provider_order_id"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency          string              `gorm:"column:currency;not null;default:'INR'"`
	Status            enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	SignatureVerified bool                `gorm:"column:signature_verified;not null;default:false"`
	WebhookReceived   bool                `gorm:"column:webhook_received;not null;default:false"`
	FailureReason     *string             `gorm:"column:failure_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

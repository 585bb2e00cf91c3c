package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// DeliveryChargeRule is a [StartKm, EndKm] -> Price distance tier.
type DeliveryChargeRule struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StartKm   decimal.Decimal `gorm:"column:start_km;type:numeric(6,2);not null"`
	EndKm     decimal.Decimal `gorm:"column:end_km;type:numeric(6,2);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryOrderValueRule waives or fixes the delivery charge once the order
// value crosses Threshold.
type DeliveryOrderValueRule struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Threshold  decimal.Decimal          `gorm:"column:threshold;type:numeric(10,2);not null"`
	Type       enums.OrderValueRuleType `gorm:"column:type;not null"`
	FixedPrice decimal.Decimal          `gorm:"column:fixed_price;type:numeric(10,2);not null"`
	Active     bool                     `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

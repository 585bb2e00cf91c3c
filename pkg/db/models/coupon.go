package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// Coupon is read-only reference data consumed by checkout validation.
type Coupon struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code           string           `gorm:"column:code;not null;uniqueIndex:uq_coupons_code"`
	Type           enums.CouponType `gorm:"column:type;not null"`
	Value          decimal.Decimal  `gorm:"column:value;type:numeric(10,2);not null"`
	MinOrderAmount decimal.Decimal  `gorm:"column:min_order_amount;type:numeric(10,2);not null"`
	MaxDiscount    decimal.Decimal  `gorm:"column:max_discount;type:numeric(10,2);not null"`
	ValidFrom      time.Time        `gorm:"column:valid_from;not null"`
	ValidUntil     time.Time        `gorm:"column:valid_until;not null"`
	Active         bool             `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TaxSetting carries the authoritative GST split applied to taxable totals.
type TaxSetting struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CGSTRate  decimal.Decimal `gorm:"column:cgst_rate;type:numeric(5,2);not null"`
	SGSTRate  decimal.Decimal `gorm:"column:sgst_rate;type:numeric(5,2);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

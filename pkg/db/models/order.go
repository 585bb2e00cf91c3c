package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// Order is the durable record created exactly once per checkout session.
// Invariant: TotalAmount == ItemTotal - DiscountAmount + CGST + SGST +
// DeliveryCharge within one rupee.
type Order struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string                   `gorm:"column:order_number;not null;uniqueIndex:uq_orders_order_number"`
	Status          enums.OrderStatus        `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus   enums.OrderPaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	ItemTotal       decimal.Decimal          `gorm:"column:item_total;type:numeric(10,2);not null"`
	DiscountAmount  decimal.Decimal          `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	CGST            decimal.Decimal          `gorm:"column:cgst;type:numeric(10,2);not null"`
	SGST            decimal.Decimal          `gorm:"column:sgst;type:numeric(10,2);not null"`
	DeliveryCharge  decimal.Decimal          `gorm:"column:delivery_charge;type:numeric(10,2);not null"`
	TotalAmount     decimal.Decimal          `gorm:"column:total_amount;type:numeric(10,2);not null"`
	CouponCode      *string                  `gorm:"column:coupon_code"`
	ContactName     string                   `gorm:"column:contact_name;not null"`
	ContactPhone    string                   `gorm:"column:contact_phone;not null"`
	ContactEmail    *string                  `gorm:"column:contact_email"`
	DeliveryAddress string                   `gorm:"column:delivery_address;not null"`
	DistanceKm      decimal.Decimal          `gorm:"column:distance_km;type:numeric(6,2);not null"`
	Notes           *string                  `gorm:"column:notes"`
	LatestPaymentID *uuid.UUID               `gorm:"column:latest_payment_id;type:uuid"`
	Items           []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

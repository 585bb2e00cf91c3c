package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// LineItem is one cart line inside a checkout session. UnitPrice is the
// server-side price captured at validation time, never the client's.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// Session is the short-lived checkout state held in Redis while the customer
// completes payment. It is mutated by cart edits and by the settlement
// pipeline, and destroyed after order creation or TTL expiry.
type Session struct {
	ID              string                      `json:"id"`
	Items           []LineItem                  `json:"items"`
	Subtotal        decimal.Decimal             `json:"subtotal"`
	Discount        decimal.Decimal             `json:"discount"`
	CGST            decimal.Decimal             `json:"cgst"`
	SGST            decimal.Decimal             `json:"sgst"`
	DeliveryFee     decimal.Decimal             `json:"delivery_fee"`
	Total           decimal.Decimal             `json:"total"`
	ContactName     string                      `json:"contact_name"`
	ContactPhone    string                      `json:"contact_phone"`
	ContactEmail    *string                     `json:"contact_email,omitempty"`
	AddressID       string                      `json:"address_id"`
	DeliveryAddress string                      `json:"delivery_address"`
	DistanceKm      decimal.Decimal             `json:"distance_km"`
	CouponCode      *string                     `json:"coupon_code,omitempty"`
	Notes           *string                     `json:"notes,omitempty"`
	PaymentStatus   enums.CheckoutPaymentStatus `json:"payment_status"`
	ProviderOrderID *string                     `json:"provider_order_id,omitempty"`
	DatabaseOrderID *uuid.UUID                  `json:"database_order_id,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/responses"
	"github.com/Its-SuperNova/duchess-backend-sub004/api/validators"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/checkout"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
)

type totalsValidator interface {
	Validate(ctx context.Context, input checkout.ValidateInput) (*checkout.ValidatedTotals, error)
}

type sessionWriter interface {
	Create(ctx context.Context, session *checkout.Session) (*checkout.Session, error)
	Update(ctx context.Context, checkoutID string, mutate func(*checkout.Session) error) (*checkout.Session, error)
}

type checkoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type validateCheckoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	AddressID       string                `json:"address_id" validate:"required"`
	DistanceKm      decimal.Decimal       `json:"distance_km" validate:"required"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	ClientTotal     *decimal.Decimal      `json:"client_total,omitempty"`
	ContactName     string                `json:"contact_name" validate:"required"`
	ContactPhone    string                `json:"contact_phone" validate:"required"`
	ContactEmail    *string               `json:"contact_email,omitempty" validate:"omitempty,email"`
	DeliveryAddress string                `json:"delivery_address" validate:"required"`
	Notes           *string               `json:"notes,omitempty"`
	CheckoutID      *string               `json:"checkout_id,omitempty"`
}

type checkoutTotalsResponse struct {
	CheckoutID   string              `json:"checkout_id"`
	Items        []checkout.LineItem `json:"items"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Discount     decimal.Decimal     `json:"discount"`
	CGST         decimal.Decimal     `json:"cgst"`
	SGST         decimal.Decimal     `json:"sgst"`
	DeliveryFee  decimal.Decimal     `json:"delivery_fee"`
	FreeDelivery bool                `json:"free_delivery"`
	Total        decimal.Decimal     `json:"total"`
}

// ValidateCheckout re-prices the cart server side and persists the result as
// a checkout session. Clients treat the returned totals as authoritative.
func ValidateCheckout(validator totalsValidator, sessions sessionWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req validateCheckoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := checkout.ValidateInput{
			AddressID:   req.AddressID,
			DistanceKm:  req.DistanceKm,
			CouponCode:  req.CouponCode,
			ClientTotal: req.ClientTotal,
		}
		for _, item := range req.Items {
			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			input.Items = append(input.Items, checkout.ItemInput{ProductID: productID, Quantity: item.Quantity})
		}

		totals, err := validator.Validate(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := persistSession(ctx, sessions, &req, totals)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCheckoutID(ctx, session.ID)
			logg.Info(ctx, "checkout validated")
		}

		responses.WriteSuccess(w, checkoutTotalsResponse{
			CheckoutID:   session.ID,
			Items:        totals.Items,
			Subtotal:     totals.Subtotal,
			Discount:     totals.Discount,
			CGST:         totals.CGST,
			SGST:         totals.SGST,
			DeliveryFee:  totals.DeliveryFee,
			FreeDelivery: totals.DeliveryIsFree,
			Total:        totals.Total,
		})
	}
}

func persistSession(ctx context.Context, sessions sessionWriter, req *validateCheckoutRequest, totals *checkout.ValidatedTotals) (*checkout.Session, error) {
	apply := func(session *checkout.Session) {
		session.Items = totals.Items
		session.Subtotal = totals.Subtotal
		session.Discount = totals.Discount
		session.CGST = totals.CGST
		session.SGST = totals.SGST
		session.DeliveryFee = totals.DeliveryFee
		session.Total = totals.Total
		session.ContactName = req.ContactName
		session.ContactPhone = req.ContactPhone
		session.ContactEmail = req.ContactEmail
		session.AddressID = req.AddressID
		session.DeliveryAddress = req.DeliveryAddress
		session.DistanceKm = req.DistanceKm
		session.CouponCode = totals.CouponCode
		session.Notes = req.Notes
	}

	if req.CheckoutID != nil && *req.CheckoutID != "" {
		return sessions.Update(ctx, *req.CheckoutID, func(session *checkout.Session) error {
			apply(session)
			return nil
		})
	}

	session := &checkout.Session{}
	apply(session)
	return sessions.Create(ctx, session)
}

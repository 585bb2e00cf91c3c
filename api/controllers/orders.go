package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/responses"
	"github.com/Its-SuperNova/duchess-backend-sub004/api/validators"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/checkout"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/settlement"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/razorpay"
)

type providerGateway interface {
	CreateOrder(amountPaise int64, currency, receipt string, notes map[string]any) (*razorpay.ProviderOrder, error)
	KeyID() string
}

type sessionReader interface {
	Get(ctx context.Context, checkoutID string) (*checkout.Session, error)
	AttachProviderOrder(ctx context.Context, checkoutID, providerOrderID string) error
}

type settlementPreparer interface {
	Prepare(ctx context.Context, session *checkout.Session, providerOrderID string) (*settlement.Result, error)
}

type createOrderRequest struct {
	CheckoutID string `json:"checkout_id" validate:"required"`
}

type createOrderResponse struct {
	ProviderOrderID string          `json:"provider_order_id"`
	LocalOrderID    uuid.UUID       `json:"local_order_id"`
	OrderNumber     string          `json:"order_number"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PublicKey       string          `json:"public_key"`
}

// CreateOrder opens a provider order for the checkout session's validated
// total and persists the pending Order/Payment pair. Replaying the call for a
// session that already has a provider order returns the existing pair.
func CreateOrder(gateway providerGateway, sessions sessionReader, coordinator settlementPreparer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithCheckoutID(ctx, req.CheckoutID)
		}

		session, err := sessions.Get(ctx, req.CheckoutID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !session.Total.IsPositive() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "checkout total must be positive"))
			return
		}

		providerOrderID := ""
		if session.ProviderOrderID != nil {
			providerOrderID = *session.ProviderOrderID
		} else {
			// amount is rupees with two decimals; the gateway wants paise
			amountPaise := session.Total.Mul(decimal.NewFromInt(100)).IntPart()
			providerOrder, err := gateway.CreateOrder(amountPaise, "INR", session.ID, map[string]any{
				"checkout_id": session.ID,
			})
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			providerOrderID = providerOrder.ID
			if err := sessions.AttachProviderOrder(ctx, session.ID, providerOrderID); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			session.ProviderOrderID = &providerOrderID
		}

		if logg != nil {
			ctx = logg.WithProviderOrderID(ctx, providerOrderID)
		}

		result, err := coordinator.Prepare(ctx, session, providerOrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "pending order opened")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			ProviderOrderID: providerOrderID,
			LocalOrderID:    result.OrderID,
			OrderNumber:     result.OrderNumber,
			Amount:          session.Total,
			Currency:        "INR",
			PublicKey:       gateway.KeyID(),
		})
	}
}

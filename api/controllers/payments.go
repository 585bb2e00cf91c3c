package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/responses"
	"github.com/Its-SuperNova/duchess-backend-sub004/api/validators"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/settlement"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/razorpay"
)

type settlementFinalizer interface {
	Finalize(ctx context.Context, providerOrderID, checkoutID string, evidence settlement.Evidence) (*settlement.Result, error)
	Status(ctx context.Context, providerOrderID, checkoutID string) (*settlement.StatusReport, error)
}

type verifyPaymentRequest struct {
	ProviderOrderID   string `json:"provider_order_id" validate:"required"`
	ProviderPaymentID string `json:"provider_payment_id" validate:"required"`
	Signature         string `json:"signature" validate:"required"`
	CheckoutID        string `json:"checkout_id,omitempty"`
}

type verifyPaymentResponse struct {
	Success      bool      `json:"success"`
	LocalOrderID uuid.UUID `json:"local_order_id"`
	OrderNumber  string    `json:"order_number"`
}

// VerifyPayment is the synchronous confirmation channel. The redirect
// signature is checked before any state is touched; a bad signature never
// reaches the coordinator.
func VerifyPayment(coordinator settlementFinalizer, signingSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithProviderOrderID(ctx, req.ProviderOrderID)
		}

		if err := razorpay.VerifyPaymentSignature(req.ProviderOrderID, req.ProviderPaymentID, req.Signature, signingSecret); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := coordinator.Finalize(ctx, req.ProviderOrderID, req.CheckoutID, settlement.Evidence{
			ProviderPaymentID: req.ProviderPaymentID,
			SignatureVerified: true,
			Source:            "redirect",
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "payment verified and settled")
		}

		responses.WriteSuccess(w, verifyPaymentResponse{
			Success:      true,
			LocalOrderID: result.OrderID,
			OrderNumber:  result.OrderNumber,
		})
	}
}

type paymentStatusResponse struct {
	Status      string     `json:"status"`
	Settled     bool       `json:"settled"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	OrderNumber string     `json:"order_number,omitempty"`
}

// PaymentStatus is the client polling fallback. It is read only; callers poll
// it on a ramping interval until the ceiling and then surface a terminal
// failure to the user.
func PaymentStatus(coordinator settlementFinalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		providerOrderID := r.URL.Query().Get("orderId")
		checkoutID := r.URL.Query().Get("checkoutId")
		if providerOrderID == "" && checkoutID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId or checkoutId query parameter required"))
			return
		}

		report, err := coordinator.Status(ctx, providerOrderID, checkoutID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentStatusResponse{
			Status:      report.PaymentStatus.String(),
			Settled:     report.Settled,
			OrderID:     report.OrderID,
			OrderNumber: report.OrderNumber,
		})
	}
}

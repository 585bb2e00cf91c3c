package settlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// StatusReport answers the polling channel. It is read-only: polling never
// advances settlement, it only observes it.
type StatusReport struct {
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	OrderID       *uuid.UUID          `json:"order_id,omitempty"`
	OrderNumber   string              `json:"order_number,omitempty"`
	Settled       bool                `json:"settled"`
}

// Status resolves the current payment state for a provider order, falling
// back to the checkout session when no payment row exists yet.
func (c *Coordinator) Status(ctx context.Context, providerOrderID, checkoutID string) (*StatusReport, error) {
	if providerOrderID != "" {
		payment, err := c.payments.FindByProviderOrderID(ctx, providerOrderID)
		if err == nil {
			report := &StatusReport{
				PaymentStatus: payment.Status,
				OrderID:       payment.OrderID,
				Settled:       payment.Status == enums.PaymentStatusCaptured && payment.OrderID != nil,
			}
			if payment.OrderID != nil {
				if order, orderErr := c.orderRepo.FindByID(ctx, *payment.OrderID); orderErr == nil {
					report.OrderNumber = order.OrderNumber
				}
			}
			return report, nil
		}
		if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
			return nil, err
		}
	}

	if checkoutID != "" {
		session, err := c.sessions.Get(ctx, checkoutID)
		if err != nil {
			return nil, err
		}
		report := &StatusReport{
			OrderID: session.DatabaseOrderID,
			Settled: session.PaymentStatus == enums.CheckoutPaymentStatusPaid,
		}
		switch session.PaymentStatus {
		case enums.CheckoutPaymentStatusPaid:
			report.PaymentStatus = enums.PaymentStatusCaptured
		case enums.CheckoutPaymentStatusFailed:
			report.PaymentStatus = enums.PaymentStatusFailed
		default:
			report.PaymentStatus = enums.PaymentStatusPending
		}
		return report, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id or checkout id is required")
}

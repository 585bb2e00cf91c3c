package razorpaywebhook

import (
	"encoding/json"
	"strings"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// Event is the decoded, flattened form of a Razorpay webhook payload. The
// provider order id is the only field every handled event must carry; the
// payment id and failure description are present when the gateway sends them.
type Event struct {
	// ID is the gateway-assigned event id, used for replay suppression of
	// deferred facts. Razorpay sends it in the x-razorpay-event-id header,
	// so it is attached by the caller rather than parsed from the body.
	ID                string
	Type              enums.WebhookEventType
	ProviderOrderID   string
	ProviderPaymentID *string
	FailureReason     *string
}

type rawEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	PaymentID        string `json:"payment_id"`
	ErrorDescription string `json:"error_description"`
}

type rawWrapper struct {
	Entity *rawEntity `json:"entity"`
}

type rawEvent struct {
	Entity  string `json:"entity"`
	Event   string `json:"event"`
	Payload struct {
		Payment *rawWrapper `json:"payment"`
		Order   *rawWrapper `json:"order"`
		Refund  *rawWrapper `json:"refund"`
	} `json:"payload"`
}

// ParseEvent decodes a raw webhook body into an Event. It returns
// (nil, nil) for event types the pipeline does not handle, so callers can
// acknowledge them without processing. Parsing happens only after the
// signature over the raw body has been verified.
func ParseEvent(rawBody []byte, eventID string) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding webhook payload")
	}
	if raw.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event type missing")
	}

	eventType, err := enums.ParseWebhookEventType(raw.Event)
	if err != nil {
		return nil, nil
	}

	event := &Event{ID: eventID, Type: eventType}

	payment := unwrap(raw.Payload.Payment)
	order := unwrap(raw.Payload.Order)
	refund := unwrap(raw.Payload.Refund)

	switch eventType {
	case enums.WebhookEventOrderPaid:
		if order != nil {
			event.ProviderOrderID = order.ID
		}
		if payment != nil {
			event.ProviderPaymentID = optional(payment.ID)
			if event.ProviderOrderID == "" {
				event.ProviderOrderID = payment.OrderID
			}
		}
	case enums.WebhookEventRefundProcessed, enums.WebhookEventRefundFailed:
		if refund != nil {
			event.ProviderPaymentID = optional(refund.PaymentID)
		}
		if payment != nil {
			event.ProviderOrderID = payment.OrderID
			if event.ProviderPaymentID == nil {
				event.ProviderPaymentID = optional(payment.ID)
			}
		}
	default:
		if payment != nil {
			event.ProviderOrderID = payment.OrderID
			event.ProviderPaymentID = optional(payment.ID)
			event.FailureReason = optional(payment.ErrorDescription)
		}
	}

	if strings.TrimSpace(event.ProviderOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing provider order id")
	}
	return event, nil
}

func unwrap(wrapper *rawWrapper) *rawEntity {
	if wrapper == nil {
		return nil
	}
	return wrapper.Entity
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

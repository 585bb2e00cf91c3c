package webhooks

import (
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

// Transition is the absolute state a webhook event writes. Applying the same
// transition twice leaves the rows unchanged, which is what makes gateway
// redelivery safe.
type Transition struct {
	PaymentStatus      enums.PaymentStatus
	OrderPaymentStatus enums.OrderPaymentStatus
	OrderStatus        enums.OrderStatus
	WebhookReceived    bool
	// Mutates is false for events that are recorded but change no state.
	Mutates bool
}

var transitions = map[enums.WebhookEventType]Transition{
	enums.WebhookEventPaymentCaptured: {
		PaymentStatus:      enums.PaymentStatusCaptured,
		OrderPaymentStatus: enums.OrderPaymentStatusPaid,
		OrderStatus:        enums.OrderStatusConfirmed,
		WebhookReceived:    true,
		Mutates:            true,
	},
	enums.WebhookEventPaymentFailed: {
		PaymentStatus:      enums.PaymentStatusFailed,
		OrderPaymentStatus: enums.OrderPaymentStatusFailed,
		OrderStatus:        enums.OrderStatusCancelled,
		WebhookReceived:    true,
		Mutates:            true,
	},
	enums.WebhookEventOrderPaid: {
		PaymentStatus:      enums.PaymentStatusCaptured,
		OrderPaymentStatus: enums.OrderPaymentStatusPaid,
		OrderStatus:        enums.OrderStatusConfirmed,
		WebhookReceived:    true,
		Mutates:            true,
	},
	enums.WebhookEventRefundProcessed: {
		PaymentStatus:      enums.PaymentStatusRefunded,
		OrderPaymentStatus: enums.OrderPaymentStatusRefunded,
		OrderStatus:        enums.OrderStatusCancelled,
		WebhookReceived:    true,
		Mutates:            true,
	},
	enums.WebhookEventRefundFailed: {
		Mutates: false,
	},
}

// TransitionFor returns the state transition for the event type.
func TransitionFor(event enums.WebhookEventType) (Transition, bool) {
	transition, ok := transitions[event]
	return transition, ok
}

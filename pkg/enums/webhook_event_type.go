package enums

import "fmt"

// WebhookEventType identifies gateway webhook events the processor understands.
type WebhookEventType string

const (
	WebhookEventPaymentCaptured WebhookEventType = "payment.captured"
	WebhookEventPaymentFailed   WebhookEventType = "payment.failed"
	WebhookEventOrderPaid       WebhookEventType = "order.paid"
	WebhookEventRefundProcessed WebhookEventType = "refund.processed"
	WebhookEventRefundFailed    WebhookEventType = "refund.failed"
)

var validWebhookEventTypes = []WebhookEventType{
	WebhookEventPaymentCaptured,
	WebhookEventPaymentFailed,
	WebhookEventOrderPaid,
	WebhookEventRefundProcessed,
	WebhookEventRefundFailed,
}

// String implements fmt.Stringer.
func (w WebhookEventType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WebhookEventType.
func (w WebhookEventType) IsValid() bool {
	for _, candidate := range validWebhookEventTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWebhookEventType converts raw input into a WebhookEventType.
func ParseWebhookEventType(value string) (WebhookEventType, error) {
	for _, candidate := range validWebhookEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook event type %q", value)
}

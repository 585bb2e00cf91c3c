package enums

import "fmt"

// CheckoutPaymentStatus tracks payment progress on an in-flight checkout session.
type CheckoutPaymentStatus string

const (
	CheckoutPaymentStatusPending CheckoutPaymentStatus = "pending"
	CheckoutPaymentStatusPaid    CheckoutPaymentStatus = "paid"
	CheckoutPaymentStatusFailed  CheckoutPaymentStatus = "failed"
)

var validCheckoutPaymentStatuses = []CheckoutPaymentStatus{
	CheckoutPaymentStatusPending,
	CheckoutPaymentStatusPaid,
	CheckoutPaymentStatusFailed,
}

// String implements fmt.Stringer.
func (c CheckoutPaymentStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutPaymentStatus.
func (c CheckoutPaymentStatus) IsValid() bool {
	for _, candidate := range validCheckoutPaymentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutPaymentStatus converts raw input into a CheckoutPaymentStatus.
func ParseCheckoutPaymentStatus(value string) (CheckoutPaymentStatus, error) {
	for _, candidate := range validCheckoutPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout payment status %q", value)
}

package enums

import "fmt"

// DeliveryFeeMethod records which rule produced a delivery charge.
type DeliveryFeeMethod string

const (
	DeliveryFeeMethodOrderValue DeliveryFeeMethod = "order_value"
	DeliveryFeeMethodDistance   DeliveryFeeMethod = "distance"
	DeliveryFeeMethodFallback   DeliveryFeeMethod = "fallback"
)

var validDeliveryFeeMethods = []DeliveryFeeMethod{
	DeliveryFeeMethodOrderValue,
	DeliveryFeeMethodDistance,
	DeliveryFeeMethodFallback,
}

// String implements fmt.Stringer.
func (d DeliveryFeeMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryFeeMethod.
func (d DeliveryFeeMethod) IsValid() bool {
	for _, candidate := range validDeliveryFeeMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryFeeMethod converts raw input into a DeliveryFeeMethod.
func ParseDeliveryFeeMethod(value string) (DeliveryFeeMethod, error) {
	for _, candidate := range validDeliveryFeeMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery fee method %q", value)
}

package enums

import "fmt"

// OrderValueRuleType selects how an order-value delivery rule applies.
type OrderValueRuleType string

const (
	OrderValueRuleTypeFree  OrderValueRuleType = "free"
	OrderValueRuleTypeFixed OrderValueRuleType = "fixed"
)

var validOrderValueRuleTypes = []OrderValueRuleType{
	OrderValueRuleTypeFree,
	OrderValueRuleTypeFixed,
}

// String implements fmt.Stringer.
func (o OrderValueRuleType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderValueRuleType.
func (o OrderValueRuleType) IsValid() bool {
	for _, candidate := range validOrderValueRuleTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderValueRuleType converts raw input into an OrderValueRuleType.
func ParseOrderValueRuleType(value string) (OrderValueRuleType, error) {
	for _, candidate := range validOrderValueRuleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order value rule type %q", value)
}

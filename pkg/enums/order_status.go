package enums

import "fmt"

// OrderStatus tracks the lifecycle of a registered order. Orders
// accepted while the register is degraded carry the pending status
// until reconciliation settles them.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSettled OrderStatus = "settled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusPending,
	OrderStatusSettled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is recognized.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts a raw string into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

package enums

import "fmt"

// FulfillmentStatus tracks how far an order has moved through the supplier.
type FulfillmentStatus string

const (
	FulfillmentStatusPending    FulfillmentStatus = "pending"
	FulfillmentStatusProcessing FulfillmentStatus = "processing"
	FulfillmentStatusShipped    FulfillmentStatus = "shipped"
	FulfillmentStatusDelivered  FulfillmentStatus = "delivered"
	FulfillmentStatusCancelled  FulfillmentStatus = "cancelled"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusProcessing,
	FulfillmentStatusShipped,
	FulfillmentStatusDelivered,
	FulfillmentStatusCancelled,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}

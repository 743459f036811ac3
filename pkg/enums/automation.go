package enums

import "fmt"

// AutomationType names the long-running operations recorded in automation_logs.
type AutomationType string

const (
	AutomationInventorySync    AutomationType = "inventory_sync"
	AutomationPriceSync        AutomationType = "price_sync"
	AutomationTrackingSync     AutomationType = "tracking_sync"
	AutomationOrderFulfillment AutomationType = "order_fulfillment"
	AutomationProductImport    AutomationType = "product_import"
)

var validAutomationTypes = []AutomationType{
	AutomationInventorySync,
	AutomationPriceSync,
	AutomationTrackingSync,
	AutomationOrderFulfillment,
	AutomationProductImport,
}

// String implements fmt.Stringer.
func (a AutomationType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AutomationType.
func (a AutomationType) IsValid() bool {
	for _, candidate := range validAutomationTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAutomationType converts raw input into an AutomationType.
func ParseAutomationType(value string) (AutomationType, error) {
	for _, candidate := range validAutomationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid automation type %q", value)
}

// AutomationStatus tracks the lifecycle of an automation run.
type AutomationStatus string

const (
	AutomationStatusRunning   AutomationStatus = "running"
	AutomationStatusCompleted AutomationStatus = "completed"
	AutomationStatusFailed    AutomationStatus = "failed"
)

var validAutomationStatuses = []AutomationStatus{
	AutomationStatusRunning,
	AutomationStatusCompleted,
	AutomationStatusFailed,
}

// String implements fmt.Stringer.
func (a AutomationStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AutomationStatus.
func (a AutomationStatus) IsValid() bool {
	for _, candidate := range validAutomationStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

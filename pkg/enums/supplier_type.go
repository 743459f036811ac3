package enums

import "fmt"

// SupplierType identifies an upstream dropshipping supplier integration.
type SupplierType string

const (
	SupplierAliExpress SupplierType = "aliexpress"
	SupplierCJ         SupplierType = "cjdropshipping"
)

var validSupplierTypes = []SupplierType{
	SupplierAliExpress,
	SupplierCJ,
}

// String implements fmt.Stringer.
func (s SupplierType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SupplierType.
func (s SupplierType) IsValid() bool {
	for _, candidate := range validSupplierTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSupplierType converts raw input into a SupplierType.
func ParseSupplierType(value string) (SupplierType, error) {
	for _, candidate := range validSupplierTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid supplier type %q", value)
}

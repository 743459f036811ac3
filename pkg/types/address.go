package types

import "strings"

// Address is the shipping address snapshot persisted on orders as jsonb.
type Address struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Company    *string `json:"company,omitempty"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// Validate reports the first missing required field, if any.
func (a Address) Validate() string {
	switch {
	case strings.TrimSpace(a.FirstName) == "":
		return "first_name"
	case strings.TrimSpace(a.LastName) == "":
		return "last_name"
	case strings.TrimSpace(a.Line1) == "":
		return "line1"
	case strings.TrimSpace(a.City) == "":
		return "city"
	case strings.TrimSpace(a.PostalCode) == "":
		return "postal_code"
	case strings.TrimSpace(a.Country) == "":
		return "country"
	}
	return ""
}

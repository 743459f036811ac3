package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminTokenPayload captures the data available when minting an admin JWT.
type AdminTokenPayload struct {
	Subject string
	Scopes  []string
	JTI     string
}

// AdminTokenClaims represents the typed JWT accepted on admin endpoints.
type AdminTokenClaims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the claims carry the named scope.
func (c *AdminTokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/pkg/config"
)

func testJWTConfig() config.AdminJWTConfig {
	return config.AdminJWTConfig{
		Secret:            "test-secret",
		Issuer:            "auracart-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAdminToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	signed, err := MintAdminToken(cfg, now, AdminTokenPayload{
		Subject: "ops@auracart.io",
		Scopes:  []string{"sync:run", "orders:read"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ParseAdminToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, "ops@auracart.io", claims.Subject)
	assert.True(t, claims.HasScope("sync:run"))
	assert.False(t, claims.HasScope("products:delete"))
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestMintAdminTokenRequiresSubject(t *testing.T) {
	_, err := MintAdminToken(testJWTConfig(), time.Now(), AdminTokenPayload{})
	require.Error(t, err)
}

func TestParseAdminTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAdminToken(cfg, time.Now(), AdminTokenPayload{Subject: "ops@auracart.io"})
	require.NoError(t, err)

	bad := cfg
	bad.Secret = "other-secret"
	_, err = ParseAdminToken(bad, signed)
	require.Error(t, err)
}

func TestParseAdminTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAdminToken(cfg, time.Now().Add(-2*time.Hour), AdminTokenPayload{Subject: "ops@auracart.io"})
	require.NoError(t, err)

	_, err = ParseAdminToken(cfg, signed)
	require.Error(t, err)
}

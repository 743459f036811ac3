package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/internal/reconcile"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	pkgauth "github.com/Stan-lee13/auracart-ng/pkg/auth"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

type stubReconcile struct{}

func (stubReconcile) VerifyPaystack(context.Context, string) (*reconcile.Outcome, error) {
	return &reconcile.Outcome{}, nil
}
func (stubReconcile) HandlePaystackWebhook(context.Context, []byte, string) error    { return nil }
func (stubReconcile) HandleNOWPaymentsWebhook(context.Context, []byte, string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	manager, err := suppliers.NewManager(suppliers.ManagerParams{Logger: logg})
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Config: &config.Config{
			App:      config.AppConfig{Env: "test", Port: "8080"},
			AdminJWT: config.AdminJWTConfig{Secret: "test-secret", Issuer: "auracart", ExpirationMinutes: 5},
		},
		Logger:    logg,
		Reconcile: stubReconcile{},
		Suppliers: manager,
	})
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-AuraCart-Env"))
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/suppliers/health", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRouteAcceptsMintedToken(t *testing.T) {
	router := newTestRouter(t)

	cfg := config.AdminJWTConfig{Secret: "test-secret", Issuer: "auracart", ExpirationMinutes: 5}
	token, err := pkgauth.MintAdminToken(cfg, time.Now(), pkgauth.AdminTokenPayload{Subject: "ops@auracart"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/suppliers/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRequiresSessionHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookWithoutSignatureIsRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

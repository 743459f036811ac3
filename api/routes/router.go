package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Stan-lee13/auracart-ng/api/controllers"
	webhookcontrollers "github.com/Stan-lee13/auracart-ng/api/controllers/webhooks"
	"github.com/Stan-lee13/auracart-ng/api/middleware"
	"github.com/Stan-lee13/auracart-ng/internal/automation"
	cartsvc "github.com/Stan-lee13/auracart-ng/internal/cart"
	checkoutsvc "github.com/Stan-lee13/auracart-ng/internal/checkout"
	ordersvc "github.com/Stan-lee13/auracart-ng/internal/orders"
	productsvc "github.com/Stan-lee13/auracart-ng/internal/products"
	"github.com/Stan-lee13/auracart-ng/internal/reconcile"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	syncsvc "github.com/Stan-lee13/auracart-ng/internal/sync"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Registry   *prometheus.Registry
	Products   productsvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     ordersvc.Service
	Reconcile  reconcile.Service
	Sync       syncsvc.Service
	Automation *automation.Repository
	Suppliers  *suppliers.Manager
}

// Checkout throttling. Sessions are cheap to mint so the per-IP ceiling
// carries most of the weight.
const (
	checkoutIPLimit      = 30
	checkoutSessionLimit = 10
)

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var dbPinger, redisPinger interface {
		Ping(ctx context.Context) error
	}
	if params.DB != nil {
		dbPinger = params.DB
	}
	if params.Redis != nil {
		redisPinger = params.Redis
	}
	var limiter interface {
		FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	}
	if params.Redis != nil {
		limiter = params.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(params.Products, logg))
		r.Get("/products/{id}", controllers.GetProduct(params.Products, logg))
		r.Get("/orders/{orderNumber}", controllers.TrackOrder(params.Orders, logg))
		r.Get("/payments/paystack/verify/{reference}", controllers.VerifyPaystackPayment(params.Reconcile, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Session(logg))
			r.Get("/", controllers.GetCart(params.Cart, logg))
			r.Post("/items", controllers.AddCartItem(params.Cart, logg))
			r.Patch("/items/{productID}", controllers.UpdateCartItem(params.Cart, logg))
			r.Delete("/", controllers.ClearCart(params.Cart, logg))
		})

		checkoutPolicy := middleware.NewRateLimitPolicy("checkout", time.Minute, checkoutIPLimit, checkoutSessionLimit)
		r.With(
			middleware.Session(logg),
			middleware.RateLimit(checkoutPolicy, limiter, logg),
		).Post("/checkout", controllers.Checkout(params.Checkout, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/paystack", webhookcontrollers.PaystackWebhook(params.Reconcile, logg))
			r.Post("/nowpayments", webhookcontrollers.NOWPaymentsIPN(params.Reconcile, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.AdminJWT, logg))

		r.Get("/suppliers/health", controllers.SuppliersHealth(params.Suppliers, logg))
		r.Get("/suppliers/search", controllers.SuppliersSearch(params.Suppliers, logg))
		r.Get("/suppliers/compare/{query}", controllers.SuppliersCompare(params.Suppliers, logg))
		r.Post("/sync/{job}", controllers.TriggerSync(params.Sync, logg))
		r.Post("/products/import", controllers.ImportProduct(params.Products, logg))
		r.Get("/automation-logs", controllers.ListAutomationLogs(params.Automation, logg))
	})

	return r
}

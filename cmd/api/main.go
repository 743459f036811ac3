package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Stan-lee13/auracart-ng/api"
	"github.com/Stan-lee13/auracart-ng/api/routes"
	"github.com/Stan-lee13/auracart-ng/internal/automation"
	"github.com/Stan-lee13/auracart-ng/internal/cart"
	"github.com/Stan-lee13/auracart-ng/internal/checkout"
	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/payments"
	"github.com/Stan-lee13/auracart-ng/internal/payments/nowpayments"
	"github.com/Stan-lee13/auracart-ng/internal/payments/paystack"
	"github.com/Stan-lee13/auracart-ng/internal/products"
	"github.com/Stan-lee13/auracart-ng/internal/reconcile"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers/aliexpress"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers/cj"
	syncsvc "github.com/Stan-lee13/auracart-ng/internal/sync"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/metrics"
	"github.com/Stan-lee13/auracart-ng/pkg/migrate"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	supplierMetrics := metrics.NewSupplierMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	var cache suppliers.Cache
	if cfg.Suppliers.EnableCaching {
		cache = suppliers.NewRedisCache(redisClient, cfg.Suppliers.CacheTTL, logg, supplierMetrics)
	}

	var registered []suppliers.Supplier
	if cfg.AliExpress.Configured() {
		client, err := aliexpress.NewClient(cfg.AliExpress, suppliers.NewCredentialRepo(dbClient.DB()), logg, supplierMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create aliexpress client", err)
			os.Exit(1)
		}
		registered = append(registered, client)
	}
	if cfg.CJ.Configured() {
		client, err := cj.NewClient(cfg.CJ, logg, supplierMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create cjdropshipping client", err)
			os.Exit(1)
		}
		registered = append(registered, client)
	}

	manager, err := suppliers.NewManager(suppliers.ManagerParams{
		Config: cfg.Suppliers,
		Logger: logg,
		Cache:  cache,
	}, registered...)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier manager", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	sessionRepo := payments.NewRepository(dbClient.DB())
	automationRepo := automation.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	productService, err := products.NewService(products.ServiceParams{
		Repo:     productRepo,
		DBClient: dbClient,
		Manager:  manager,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    redisClient,
		Products: productRepo,
		TTL:      cfg.Cart.TTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutParams := checkout.ServiceParams{
		DBClient: dbClient,
		Products: productRepo,
		Orders:   orderRepo,
		Sessions: sessionRepo,
		Logger:   logg,
	}
	reconcileParams := reconcile.ServiceParams{
		DBClient: dbClient,
		Orders:   orderRepo,
		Sessions: sessionRepo,
		Outbox:   outboxService,
		Guard:    redisClient,
		Metrics:  webhookMetrics,
		Logger:   logg,
	}
	if cfg.Paystack.Configured() {
		client, err := paystack.NewClient(cfg.Paystack, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create paystack client", err)
			os.Exit(1)
		}
		checkoutParams.Paystack = client
		reconcileParams.Paystack = client
	}
	if cfg.NOWPayments.Configured() {
		client, err := nowpayments.NewClient(cfg.NOWPayments, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create nowpayments client", err)
			os.Exit(1)
		}
		checkoutParams.NOWPayments = client
		reconcileParams.NOWPayments = client
	}

	checkoutService, err := checkout.NewService(checkoutParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{Repo: orderRepo, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(reconcileParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	syncService, err := syncsvc.NewService(syncsvc.ServiceParams{
		Products: productRepo,
		Orders:   orderRepo,
		Logs:     automationRepo,
		Manager:  manager,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Registry:   registry,
		Products:   productService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Reconcile:  reconcileService,
		Sync:       syncService,
		Automation: automationRepo,
		Suppliers:  manager,
	})
	server := api.NewServer(cfg, handler)

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

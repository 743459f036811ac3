package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Stan-lee13/auracart-ng/internal/automation"
	ordersconsumer "github.com/Stan-lee13/auracart-ng/internal/consumers/orders"
	"github.com/Stan-lee13/auracart-ng/internal/fulfillment"
	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/products"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers/aliexpress"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers/cj"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/instance"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/metrics"
	"github.com/Stan-lee13/auracart-ng/pkg/migrate"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox/idempotency"
	"github.com/Stan-lee13/auracart-ng/pkg/pubsub"
	"github.com/Stan-lee13/auracart-ng/pkg/redis"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	supplierMetrics := metrics.NewSupplierMetrics(prometheus.NewRegistry())

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
	}, registered...)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier manager", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	fulfillmentService, err := fulfillment.NewService(fulfillment.ServiceParams{
		DBClient: dbClient,
		Orders:   orders.NewRepository(dbClient.DB()),
		Products: products.NewRepository(dbClient.DB()),
		Logs:     automation.NewRepository(dbClient.DB()),
		Manager:  manager,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	idempotencyManager, err := idempotency.NewManager(redisClient, idempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := ordersconsumer.NewConsumer(fulfillmentService, idempotencyManager, pubsubClient.OrdersSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		PubSub:         pubsubClient,
		OrdersConsumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting fulfillment worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

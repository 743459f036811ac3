package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Stan-lee13/auracart-ng/internal/automation"
	"github.com/Stan-lee13/auracart-ng/internal/cron"
	"github.com/Stan-lee13/auracart-ng/internal/orders"
	"github.com/Stan-lee13/auracart-ng/internal/payments"
	"github.com/Stan-lee13/auracart-ng/internal/products"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers/aliexpress"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers/cj"
	syncsvc "github.com/Stan-lee13/auracart-ng/internal/sync"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/db"
	"github.com/Stan-lee13/auracart-ng/pkg/instance"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/metrics"
	"github.com/Stan-lee13/auracart-ng/pkg/migrate"
	"github.com/Stan-lee13/auracart-ng/pkg/outbox"
	"github.com/Stan-lee13/auracart-ng/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	productRepo := products.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	sessionRepo := payments.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	syncService, err := syncsvc.NewService(syncsvc.ServiceParams{
		Products: productRepo,
		Orders:   orderRepo,
		Logs:     automation.NewRepository(dbClient.DB()),
		Manager:  manager,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	for _, spec := range []struct {
		name string
		run  func(context.Context) (*syncsvc.Summary, error)
	}{
		{"inventory-sync", syncService.SyncInventory},
		{"price-sync", syncService.SyncPrices},
		{"tracking-sync", syncService.SyncTracking},
	} {
		run := spec.run
		job, err := cron.NewSyncJob(spec.name, func(ctx context.Context) error {
			_, err := run(ctx)
			return err
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create sync job", err)
			os.Exit(1)
		}
		registry.Register(job)
	}

	sweepJob, err := cron.NewPendingSweepJob(cron.PendingSweepJobParams{
		Logger:   logg,
		DB:       dbClient,
		Orders:   orderRepo,
		Sessions: sessionRepo,
		Outbox:   outboxService,
		TTL:      cfg.Sweep.PendingOrderTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending sweep job", err)
		os.Exit(1)
	}
	registry.Register(sweepJob)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	registry.Register(retentionJob)

	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

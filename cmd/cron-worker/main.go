package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pos-inventory/internal/cron"
	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/internal/ledger"
	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/instance"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/metrics"
	"github.com/angelmondragon/pos-inventory/pkg/migrate"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/idempotency"
	"github.com/angelmondragon/pos-inventory/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	jobsFlag := flag.String("jobs", "", "comma-separated job names to run (default: all)")
	flag.Parse()

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
		Format:      cfg.App.LogFormat,
	})

	if !cfg.Redis.Enabled() {
		logg.Error(context.Background(), "cron worker requires redis for its run lock", errors.New("redis not configured"))
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

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
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	alerts, err := idempotency.NewManager(redisClient, cfg.Inventory.AlertCooldown)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert cooldown", err)
		os.Exit(1)
	}
	outboxRepo := outbox.NewRepository(dbClient.DB())
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:    inventory.NewRepository(dbClient.DB()),
		Ledger:  ledgerService,
		Tx:      dbClient,
		Events:  outbox.NewService(outboxRepo, logg),
		Alerts:  alerts,
		Metrics: metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
		Config:  cfg.Inventory,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	lowStockJob, err := cron.NewLowStockJob(cron.LowStockJobParams{Logger: logg, Inventory: inventoryService})
	if err != nil {
		logg.Error(context.Background(), "failed to create low stock job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:           logg,
		DB:               dbClient,
		Repository:       outboxRepo,
		RetentionDays:    cfg.Outbox.RetentionDays,
		TerminalAttempts: cfg.Outbox.MaxAttempts,
		BatchSize:        cfg.Outbox.PruneBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker", cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(lowStockJob, retentionJob)
	if err != nil {
		logg.Error(context.Background(), "failed to build job registry", err)
		os.Exit(1)
	}
	selected := cfg.Cron.Jobs
	if *jobsFlag != "" {
		selected = strings.Split(*jobsFlag, ",")
	}
	registry, err = registry.Select(selected)
	if err != nil {
		logg.Error(context.Background(), "invalid job selection", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
		"jobs":        len(registry.Jobs()),
		"worker_id":   instance.GetID(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if _, err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if addr := cfg.Service.MetricsAddr; addr != "" {
		metricsServer, err := metrics.Listen(addr, prometheus.DefaultGatherer)
		if err != nil {
			logg.Error(ctx, "failed to bind metrics listener", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "addr", metricsServer.Addr()), "serving metrics")
		group.Go(func() error { return metricsServer.Serve(groupCtx) })
	}

	logg.Info(ctx, "starting cron worker")
	group.Go(func() error { return service.Run(groupCtx) })
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/pos-inventory/api/routes"
	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/internal/ledger"
	"github.com/angelmondragon/pos-inventory/internal/menu"
	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/metrics"
	"github.com/angelmondragon/pos-inventory/pkg/migrate"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/idempotency"
	"github.com/angelmondragon/pos-inventory/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	closers := []func() error{dbClient.Close}
	defer func() {
		var closeErr error
		for _, closeFn := range closers {
			closeErr = multierr.Append(closeErr, closeFn())
		}
		if closeErr != nil {
			logg.Error(context.Background(), "error closing resources", closeErr)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	params := inventory.ServiceParams{
		Repo:    inventory.NewRepository(dbClient.DB()),
		Ledger:  ledgerService,
		Tx:      dbClient,
		Metrics: metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
		Config:  cfg.Inventory,
		Logger:  logg,
	}
	if cfg.FeatureFlags.EmitEvents {
		params.Events = outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	}

	deps := routes.Dependencies{DBPinger: dbClient}

	// Redis is optional on a single terminal; without it requests are not
	// deduplicated and every low-stock crossing alerts.
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)

		alerts, err := idempotency.NewManager(redisClient, cfg.Inventory.AlertCooldown)
		if err != nil {
			logg.Error(context.Background(), "failed to create alert cooldown", err)
			os.Exit(1)
		}
		params.Alerts = alerts
		deps.RedisPinger = redisClient
		deps.Idempotency = redisClient
	}

	inventoryService, err := inventory.NewService(params)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	menuService, err := menu.NewService(menu.NewRepository(dbClient.DB()), dbClient, inventoryService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create menu service", err)
		os.Exit(1)
	}
	deps.MenuService = menuService
	deps.InventorySvc = inventoryService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"db_driver": dbClient.Dialect(),
		"redis":     cfg.Redis.Enabled(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

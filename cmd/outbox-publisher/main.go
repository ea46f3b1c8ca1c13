package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/metrics"
	"github.com/angelmondragon/pos-inventory/pkg/migrate"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/registry"
	"github.com/angelmondragon/pos-inventory/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

func main() {
	var opts runOptions
	flag.BoolVar(&opts.checkOnly, "check", false, "verify config, database and topics, then exit")
	flag.StringVar(&opts.requeue, "requeue", "", "comma-separated dead-lettered event ids to send back through the outbox, then exit")
	flag.Parse()

	boot := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"serviceKind":     serviceKind,
		"inventory_topic": cfg.PubSub.InventoryTopic,
		"alerts_topic":    cfg.PubSub.AlertsTopic,
	})

	if err := run(ctx, cfg, logg, opts); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

type runOptions struct {
	checkOnly bool
	requeue   string
}

// run owns every resource the publisher opens so that deferred closes happen
// before main decides on the exit code.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts runOptions) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeWith(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	dlqRepo := outbox.NewDLQRepository(dbClient.DB())
	if opts.requeue != "" {
		return requeue(ctx, logg, dlqRepo, opts.requeue)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer closeWith(ctx, logg, "pubsub client", pubsubClient.Close)

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: dlqRepo,
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return fmt.Errorf("create outbox publisher: %w", err)
	}

	if opts.checkOnly {
		if err := service.ensureReadiness(ctx); err != nil {
			return err
		}
		logg.Info(ctx, "outbox publisher dependencies ready")
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if addr := cfg.Service.MetricsAddr; addr != "" {
		metricsServer, err := metrics.Listen(addr, prometheus.DefaultGatherer)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		logg.Info(logg.WithField(ctx, "addr", metricsServer.Addr()), "serving metrics")
		group.Go(func() error { return metricsServer.Serve(groupCtx) })
	}

	if counts, err := dlqRepo.CountByReason(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "could not summarise dlq")
	} else if len(counts) > 0 {
		logg.Warn(logg.WithField(ctx, "dlq", counts), "dead-lettered events are waiting for review")
	}

	logg.Info(ctx, "starting outbox publisher")
	group.Go(func() error { return service.Run(groupCtx) })
	return group.Wait()
}

func requeue(ctx context.Context, logg *logger.Logger, dlq *outbox.DLQRepository, raw string) error {
	var failed error
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			failed = multierr.Append(failed, fmt.Errorf("event id %q: %w", part, err))
			continue
		}
		event, err := dlq.Requeue(ctx, id)
		if err != nil {
			failed = multierr.Append(failed, fmt.Errorf("requeue %s: %w", id, err))
			continue
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID,
			"event_type": event.EventType,
		}), "event requeued")
	}
	return failed
}

func closeWith(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+what, err)
	}
}

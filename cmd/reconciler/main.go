package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborclub/harborclub-backend/internal/billing"
	"github.com/harborclub/harborclub-backend/internal/bookings"
	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/internal/notify"
	"github.com/harborclub/harborclub-backend/internal/reconcile"
	"github.com/harborclub/harborclub-backend/pkg/config"
	"github.com/harborclub/harborclub-backend/pkg/db"
	"github.com/harborclub/harborclub-backend/pkg/gateway"
	"github.com/harborclub/harborclub-backend/pkg/logger"
	"github.com/harborclub/harborclub-backend/pkg/metrics"
	"github.com/harborclub/harborclub-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	gatewayClient, err := gateway.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gateway client", err)
		os.Exit(1)
	}

	ingestMetrics := metrics.NewIngestMetrics(prometheus.NewRegistry())

	broadcaster := notify.NewPubSubBroadcaster(pubsubClient.MemberEventsPublisher())
	effects := notify.NewService(dbClient.DB(), broadcaster, notify.NewCRMClient(cfg.CRM), logg)

	applier := billing.NewApplier(billing.NewRepo(), bookings.NewRepo(), effects, logg)
	engine := ingest.NewEngine(dbClient, ingest.NewRepo(), applier, logg, ingestMetrics)
	sweeper := reconcile.NewSweeper(gatewayClient, engine, cfg.Reconcile.Interval, cfg.Reconcile.Lookback, logg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Reconcile.Interval.String(),
		"lookback": cfg.Reconcile.Lookback.String(),
	})
	logg.Info(ctx, "starting reconcile loop")

	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile loop stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "reconciler shut down")
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harborclub/harborclub-backend/api/routes"
	"github.com/harborclub/harborclub-backend/internal/billing"
	"github.com/harborclub/harborclub-backend/internal/bookings"
	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/internal/notify"
	"github.com/harborclub/harborclub-backend/pkg/config"
	"github.com/harborclub/harborclub-backend/pkg/db"
	"github.com/harborclub/harborclub-backend/pkg/gateway"
	"github.com/harborclub/harborclub-backend/pkg/logger"
	"github.com/harborclub/harborclub-backend/pkg/metrics"
	"github.com/harborclub/harborclub-backend/pkg/migrate"
	"github.com/harborclub/harborclub-backend/pkg/pubsub"
	"github.com/harborclub/harborclub-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ingestMetrics := metrics.NewIngestMetrics(registry)

	broadcaster := notify.NewPubSubBroadcaster(pubsubClient.MemberEventsPublisher())
	effects := notify.NewService(dbClient.DB(), broadcaster, notify.NewCRMClient(cfg.CRM), logg)

	applier := billing.NewApplier(billing.NewRepo(), bookings.NewRepo(), effects, logg)
	engine := ingest.NewEngine(dbClient, ingest.NewRepo(), applier, logg, ingestMetrics)
	guard := ingest.NewGuard(redisClient, cfg.Ingest.GuardTTL, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubClient, engine, gatewayClient, guard, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

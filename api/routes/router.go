package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborclub/harborclub-backend/api/controllers"
	webhookcontrollers "github.com/harborclub/harborclub-backend/api/controllers/webhooks"
	"github.com/harborclub/harborclub-backend/api/middleware"
	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/pkg/config"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type eventProcessor interface {
	Process(ctx context.Context, event ingest.Event) (ingest.Result, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string)
}

type gatewayClient interface {
	SigningSecret() string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisP pinger,
	pubsubP pinger,
	engine eventProcessor,
	client gatewayClient,
	guard webhookGuard,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, pubsubP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/gateway", webhookcontrollers.GatewayWebhook(engine, client, guard, logg))
	})

	return r
}

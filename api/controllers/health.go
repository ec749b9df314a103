package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/harborclub/harborclub-backend/api/responses"
	"github.com/harborclub/harborclub-backend/pkg/config"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HarborClub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, pubsubP pinger) http.HandlerFunc {
	checks := map[string]pinger{
		"db":     dbP,
		"redis":  redisP,
		"pubsub": pubsubP,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HarborClub-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		status := map[string]string{}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Ping(ctx); err != nil {
				status[name] = "unavailable"
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready").WithDetails(status))
				return
			}
			status[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}

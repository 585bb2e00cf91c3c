package controllers

import (
	"net/http"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/responses"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/redis"
)

const envHeader = "X-Duchess-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the backing stores the settlement pipeline depends on.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

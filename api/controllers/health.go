package controllers

import (
	"net/http"

	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/pkg/config"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
	pkgredis "github.com/hmoralesdev/retailpoint-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailPoint-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the database and Redis both
// answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailPoint-Env", cfg.App.Env)

		deps := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				deps["database"] = "down"
				healthy = false
			} else {
				deps["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				deps["redis"] = "down"
				healthy = false
			} else {
				deps["redis"] = "up"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
					WithDetails(deps))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": deps})
	}
}

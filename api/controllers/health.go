package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/api/responses"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
)

const (
	envHeader    = "X-FoodApp-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports 503 until every named dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		var firstErr error
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "missing"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			checks[name] = "ok"
		}

		for _, status := range checks {
			if status != "ok" {
				err := pkgerrors.Wrap(pkgerrors.CodeDependency, firstErr, "dependencies not ready").
					WithDetails(map[string]any{"checks": checks})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/schoolmart/schoolmart-cart/api/responses"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

const envHeader = "X-SchoolMart-Env"

// Pinger is the dependency health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the named dependencies and reports per-dependency status.
// Any failing dependency turns the response into a 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"status": "ready"}
		ready := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				ready = false
				status[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			status[name] = "up"
		}

		if !ready {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schoolmart/schoolmart-cart/api/controllers"
	"github.com/schoolmart/schoolmart-cart/api/middleware"
	"github.com/schoolmart/schoolmart-cart/internal/session"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
	"github.com/schoolmart/schoolmart-cart/pkg/redis"
)

// NewSessionRouter wires the storefront-facing cart API served by cartd.
func NewSessionRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry *session.Registry,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"redis": redisClient,
		}))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		// A typed-nil client would slip past the middlewares' nil-store
		// checks, so skip the redis-backed layers when redis is absent.
		if redisClient != nil {
			r.Use(middleware.MutationRateLimit(
				middleware.NewMutationRateLimitPolicy(cfg.Cart.RateLimitWindow, cfg.Cart.RateLimit),
				redisClient,
				logg,
			))
			r.Use(middleware.Idempotency(redisClient, cfg.Cart.IdempotencyTTL, logg))
		}

		r.Get("/", controllers.GetCart(registry, logg))
		r.Post("/load", controllers.LoadCart(registry, logg))
		r.Delete("/", controllers.ClearCart(registry, logg))
		r.Post("/items", controllers.AddCartItem(registry, logg))
		r.Patch("/items/{id}", controllers.UpdateCartItem(registry, logg))
		r.Delete("/items/{id}", controllers.RemoveCartItem(registry, logg))
	})

	return r
}

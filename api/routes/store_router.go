package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolmart/schoolmart-cart/api/controllers"
	"github.com/schoolmart/schoolmart-cart/api/controllers/storecart"
	"github.com/schoolmart/schoolmart-cart/api/middleware"
	"github.com/schoolmart/schoolmart-cart/internal/cartstore"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	"github.com/schoolmart/schoolmart-cart/pkg/db"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

// NewStoreRouter wires the authoritative cart API served by cartstore.
func NewStoreRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	svc cartstore.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbClient,
		}))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/items", storecart.ListItems(svc, logg))
		r.Post("/items", storecart.AddItem(svc, logg))
		r.Put("/items/{id}", storecart.UpdateItem(svc, logg))
		r.Delete("/items/{id}", storecart.RemoveItem(svc, logg))
		r.Delete("/", storecart.ClearCart(svc, logg))
	})

	return r
}

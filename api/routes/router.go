package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pos-inventory/api/controllers"
	"github.com/angelmondragon/pos-inventory/api/middleware"
	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/internal/menu"
	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/redis"
)

// Dependencies groups what the router hands to controllers. RedisPinger and
// Idempotency stay nil when redis is not configured.
type Dependencies struct {
	DBPinger     controllers.Pinger
	RedisPinger  controllers.Pinger
	Idempotency  redis.IdempotencyStore
	MenuService  menu.Service
	InventorySvc inventory.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if cfg.FeatureFlags.MetricsRoute {
		r.Handle("/metrics", promhttp.Handler())
	}

	menuSvc := deps.MenuService
	inv := deps.InventorySvc

	var idem *middleware.Idempotency
	if cfg.FeatureFlags.Idempotency && deps.Idempotency != nil {
		idem = middleware.NewIdempotency(deps.Idempotency, logg)
	}
	configGuard := idem.Guard(middleware.ConfigTTL)
	stockGuard := idem.Guard(middleware.StockTTL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(menuSvc, logg))
			r.Post("/", controllers.CreateCategory(menuSvc, logg))
			r.Get("/{categoryId}/tracking", controllers.GetTracking(inv, logg))
			r.With(configGuard).Post("/{categoryId}/tracking", controllers.RegisterTracking(inv, logg))
			r.Delete("/{categoryId}/tracking", controllers.UnregisterTracking(inv, logg))
		})

		r.Patch("/portions/{portionId}", controllers.UpdatePortion(inv, logg))

		r.Route("/menu-items", func(r chi.Router) {
			r.Get("/", controllers.ListMenuItems(menuSvc, logg))
			r.Post("/", controllers.CreateMenuItem(menuSvc, logg))
			r.Route("/{menuItemId}", func(r chi.Router) {
				r.With(stockGuard).Post("/stock", controllers.ReceiveStock(inv, logg))
				r.With(stockGuard).Post("/stock/adjustments", controllers.AdjustStock(inv, logg))
				r.Get("/stock/entries", controllers.ListStockEntries(inv, logg))
				r.With(configGuard).Put("/bottle-size", controllers.SetBottleSize(inv, logg))
				r.Get("/portions", controllers.ListPortionPrices(inv, logg))
				r.Get("/portions/{portionId}/price", controllers.GetPortionPrice(inv, logg))
				r.With(configGuard).Put("/portions/{portionId}/price", controllers.SetPortionPrice(inv, logg))
				r.Delete("/portions/{portionId}/price", controllers.ClearPortionPrice(inv, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/low-stock", controllers.LowStockItems(inv, logg))
			r.Get("/bottle-sizes", controllers.BottleSizes(inv))
		})
	})

	return r
}

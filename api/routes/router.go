package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radityapw/eggmart-backend/api/controllers"
	"github.com/radityapw/eggmart-backend/api/middleware"
	"github.com/radityapw/eggmart-backend/internal/dashboard"
	"github.com/radityapw/eggmart-backend/internal/listings"
	"github.com/radityapw/eggmart-backend/internal/orders"
	"github.com/radityapw/eggmart-backend/internal/scans"
	"github.com/radityapw/eggmart-backend/pkg/config"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	"github.com/radityapw/eggmart-backend/pkg/logger"
	"github.com/radityapw/eggmart-backend/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Scans     scans.Service
	Listings  listings.Service
	Orders    orders.Service
	Dashboard dashboard.Service
	Registry  *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	logg := deps.Logger

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, logg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, logg))

		r.Get("/catalog", controllers.Catalog(deps.Listings, logg))
		r.Get("/catalog/{sellerID}", controllers.SellerDetail(deps.Listings, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.BuyerOrderHistory(deps.Orders, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleSeller), logg))

			r.Post("/scans", controllers.RecordScan(deps.Scans, logg))
			r.Post("/listings", controllers.SaveListing(deps.Listings, logg))
			r.Get("/listings", controllers.MyListings(deps.Listings, logg))
			r.Get("/orders", controllers.SellerOrderHistory(deps.Orders, logg))
			r.Get("/dashboard", controllers.SellerDashboard(deps.Dashboard, logg))
		})
	})

	return r
}

package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/crownleather-backend/api/controllers"
	"github.com/angelmondragon/crownleather-backend/api/middleware"
	"github.com/angelmondragon/crownleather-backend/internal/cart"
	"github.com/angelmondragon/crownleather-backend/internal/catalog"
	"github.com/angelmondragon/crownleather-backend/internal/identity"
	"github.com/angelmondragon/crownleather-backend/internal/orders"
	"github.com/angelmondragon/crownleather-backend/pkg/auth/session"
	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/metrics"
	"github.com/angelmondragon/crownleather-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs for rate
// limiting and idempotency.
type RedisStore interface {
	redis.IdempotencyStore
	controllers.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Gate     identity.Gate
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout controllers.Initiator
	Orders   orders.Service
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, metrics.NewHTTPMetrics(d.Registerer)),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy, registerPolicy := middleware.AuthRateLimitPolicies(cfg.AuthRateLimit)
	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": d.Redis,
		}))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Gate, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Gate, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Gate, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(d.Gate, logg))
		})

		r.Get("/catalog", controllers.CatalogList(d.Catalog, logg))
		r.Get("/catalog/{id}", controllers.CatalogGet(d.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Put("/items/{itemId}", controllers.CartSetQuantity(d.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(d.Cart, logg))
			})

			r.With(middleware.Idempotency(d.Redis, middleware.IdempotencyOptions{
				Pending: cfg.Checkout.LockTTL(),
			}, logg)).Post("/checkout", controllers.Checkout(d.Checkout, logg))

			r.Get("/orders", controllers.OrdersList(d.Orders, logg))
			r.Get("/orders/{id}", controllers.OrdersGet(d.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/auth/login", controllers.AdminAuthLogin(d.Gate, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireRole(enums.RoleSuperAdmin, logg))

				r.Get("/orders", controllers.AdminOrdersList(d.Orders, logg))
				r.Get("/orders/{id}", controllers.AdminOrdersGet(d.Orders, logg))
				r.Patch("/orders/{id}/status", controllers.AdminOrdersUpdateStatus(d.Orders, logg))

				r.Get("/products", controllers.AdminProductsList(d.Catalog, logg))
				r.Post("/products", controllers.AdminProductsCreate(d.Catalog, logg))
				r.Patch("/products/{id}", controllers.AdminProductsUpdate(d.Catalog, logg))
				r.Delete("/products/{id}", controllers.AdminProductsDelete(d.Catalog, logg))

				r.Get("/customers", controllers.AdminCustomers(d.Orders, logg))
				r.Get("/analytics/summary", controllers.AdminAnalyticsSummary(d.Orders, logg))
			})
		})
	})

	return r
}

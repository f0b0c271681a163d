package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftmarket/storefront-backend/api/controllers"
	"github.com/craftmarket/storefront-backend/api/middleware"
	"github.com/craftmarket/storefront-backend/internal/auth"
	"github.com/craftmarket/storefront-backend/internal/cart"
	"github.com/craftmarket/storefront-backend/internal/products"
	"github.com/craftmarket/storefront-backend/pkg/auth/session"
	"github.com/craftmarket/storefront-backend/pkg/config"
	"github.com/craftmarket/storefront-backend/pkg/db"
	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/craftmarket/storefront-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       db.Pinger
	RedisPinger    redis.Pinger
	SessionChecker session.AccessSessionChecker
	AuthService    auth.Service
	ProductService products.Service
	CartService    cart.Service
	Metrics        prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.SessionChecker, logg)).
			Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.ProductService, logg))
		r.Get("/{slug}", controllers.ProductGet(p.ProductService, logg))
	})

	// Cart routes accept both anonymous and signed-in shoppers; the identity
	// middleware ensures the session cookie and honors a bearer token when one
	// is presented.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartIdentity(cfg.JWT, p.SessionChecker, cfg.App.IsProd(), logg))
		r.Get("/", controllers.CartGet(p.CartService, logg))
		r.Delete("/", controllers.CartClear(p.CartService, logg))
		r.Post("/items", controllers.CartAddItem(p.CartService, logg))
		r.Delete("/items/{productId}", controllers.CartRemoveItem(p.CartService, logg))
	})

	return r
}

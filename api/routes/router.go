package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velora-shop/storefront-backend/api/controllers"
	"github.com/velora-shop/storefront-backend/api/middleware"
	authsvc "github.com/velora-shop/storefront-backend/internal/auth"
	basketsvc "github.com/velora-shop/storefront-backend/internal/basket"
	checkoutsvc "github.com/velora-shop/storefront-backend/internal/checkout"
	marketingsvc "github.com/velora-shop/storefront-backend/internal/marketing"
	ordersvc "github.com/velora-shop/storefront-backend/internal/orders"
	productsvc "github.com/velora-shop/storefront-backend/internal/products"
	"github.com/velora-shop/storefront-backend/pkg/auth/session"
	"github.com/velora-shop/storefront-backend/pkg/config"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Auth      authsvc.Service
	Products  productsvc.Service
	Baskets   *basketsvc.Service
	Checkout  checkoutsvc.Service
	Orders    ordersvc.Service
	Marketing marketingsvc.Service
}

// NewRouter assembles the storefront API.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger
	secureCookies := cfg.App.IsProd()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)
	guestBasket := middleware.GuestBasket(cfg.Basket, secureCookies, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(d.Products, logg))
			r.Get("/{slug}", controllers.ProductsGet(d.Products, logg))
		})

		r.Route("/basket", func(r chi.Router) {
			r.Use(optionalAuth, guestBasket)
			r.Get("/", controllers.BasketGet(d.Baskets, logg))
			r.Put("/", controllers.BasketReplace(d.Baskets, logg))
			r.Delete("/", controllers.BasketClear(d.Baskets, logg))
			r.Post("/lines", controllers.BasketAddLine(d.Baskets, logg))
			r.Patch("/lines", controllers.BasketUpdateLine(d.Baskets, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(guestBasket).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/verify-email", controllers.AuthVerifyEmail(d.Auth, logg))
			r.Post("/resend-verification", controllers.AuthResendVerification(d.Auth, logg))
		})

		r.With(requireAuth, middleware.RequireVerifiedEmail(logg), guestBasket).
			Post("/checkout", controllers.CheckoutPlaceOrder(d.Checkout, cfg.Basket, secureCookies, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.OrdersList(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(d.Orders, logg))
		})

		r.Post("/newsletter", controllers.NewsletterSubscribe(d.Marketing, logg))
		r.Post("/contact", controllers.ContactSubmit(d.Marketing, logg))
	})

	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bucketcart/storefront-gateway/api/controllers"
	"github.com/bucketcart/storefront-gateway/api/middleware"
	"github.com/bucketcart/storefront-gateway/internal/addresses"
	"github.com/bucketcart/storefront-gateway/internal/auth"
	cartsvc "github.com/bucketcart/storefront-gateway/internal/cart"
	"github.com/bucketcart/storefront-gateway/internal/catalog"
	checkoutsvc "github.com/bucketcart/storefront-gateway/internal/checkout"
	"github.com/bucketcart/storefront-gateway/internal/coupons"
	"github.com/bucketcart/storefront-gateway/internal/favorites"
	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/internal/orders"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
	"github.com/bucketcart/storefront-gateway/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   *redis.Client
	Backend *backend.Client

	Sessions middleware.SessionResolver
	Gatherer prometheus.Gatherer
	Feed     controllers.OrderFeed

	Auth          auth.Service
	Cart          cartsvc.Service
	Catalog       catalog.Service
	Coupons       coupons.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Favorites     favorites.Service
	Addresses     addresses.Service
	Notifications notifications.Service

	ReadyChecks map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
		r.Get("/subcategories", controllers.CatalogSubcategories(deps.Catalog, logg))
		r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
		r.Get("/products/{productID}", controllers.CatalogProduct(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Put("/items/{productID}", controllers.CartSetQuantity(deps.Cart, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Cart, logg))
				r.Put("/shipping-address", controllers.CartSetShippingAddress(deps.Cart, logg))
				r.Put("/payment-method", controllers.CartSetPaymentMethod(deps.Cart, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Post("/validate", controllers.CouponApply(deps.Coupons, logg))
				r.Get("/current", controllers.CouponCurrent(deps.Coupons, logg))
				r.Delete("/current", controllers.CouponRemove(deps.Coupons, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/mine", controllers.OrdersMine(deps.Orders, logg))
				r.Get("/{orderID}", controllers.OrderGet(deps.Orders, logg))
				r.Get("/{orderID}/progress", controllers.OrderProgressStream(deps.Orders, logg))
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.FavoritesList(deps.Favorites, logg))
				r.Post("/", controllers.FavoritesAdd(deps.Favorites, logg))
				r.Delete("/{productID}", controllers.FavoritesRemove(deps.Favorites, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressesList(deps.Addresses, logg))
				r.Post("/", controllers.AddressesCreate(deps.Addresses, logg))
				r.Put("/{addressID}", controllers.AddressesUpdate(deps.Addresses, logg))
				r.Delete("/{addressID}", controllers.AddressesDelete(deps.Addresses, logg))
				r.Put("/{addressID}/default", controllers.AddressesSetDefault(deps.Addresses, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationsList(deps.Notifications, logg, false))
				r.Post("/read-all", controllers.NotificationsMarkAllRead(deps.Notifications, logg, false))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(deps.Backend, deps.Feed, logg))
			r.Put("/{orderID}/pay", controllers.AdminOrderTransition(deps.Orders, logg, "pay"))
			r.Put("/{orderID}/ship", controllers.AdminOrderTransition(deps.Orders, logg, "ship"))
			r.Put("/{orderID}/deliver", controllers.AdminOrderTransition(deps.Orders, logg, "deliver"))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(deps.Notifications, logg, true))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(deps.Notifications, logg, true))
		})
	})

	return r
}

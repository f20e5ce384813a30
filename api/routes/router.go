package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/suuq-marketplace/api/controllers"
	"github.com/angelmondragon/suuq-marketplace/api/middleware"
	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/internal/checkout"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/pkg/config"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP surface is built on.
// Redis-backed stores may be nil, which disables idempotency and rate limiting.
type Dependencies struct {
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service

	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Gatherer    prometheus.Gatherer
	Checks      map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon",
		cfg.Checkout.CouponWindow,
		cfg.Checkout.CouponLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Checks))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		// Idempotency matches on the full route pattern, which chi only
		// resolves for inline middleware.
		idempotent := middleware.Idempotency(deps.Idempotency, cfg.Checkout.IdempotencyTTL, logg)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogProducts(deps.Catalog, logg))
			r.Get("/featured", controllers.CatalogFeatured(deps.Catalog, logg))
			r.Get("/{productId}", controllers.CatalogProduct(deps.Catalog, logg))
			r.Get("/{productId}/related", controllers.CatalogRelated(deps.Catalog, logg))
		})
		r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.CatalogStores(deps.Catalog, logg))
			r.Get("/featured", controllers.CatalogFeaturedStores(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Get("/preview", controllers.CartPreview(deps.Cart, logg))
			r.Get("/recommendations", controllers.CartRecommendations(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{productId}", controllers.CartSetQuantity(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutState(deps.Checkout, logg))
			r.Post("/shipping", controllers.CheckoutShipping(deps.Checkout, logg))
			r.Post("/payment", controllers.CheckoutPayment(deps.Checkout, logg))
			r.With(middleware.SessionRateLimit(couponPolicy, deps.RateLimiter, logg)).
				Post("/coupon", controllers.CheckoutCoupon(deps.Checkout, logg))
			r.With(idempotent).Post("/place", controllers.CheckoutPlace(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.With(idempotent).Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
			if cfg.FeatureFlags.StatusOverride {
				r.Post("/{orderId}/status", controllers.OrderStatusOverride(deps.Orders, logg))
			}
		})

		r.Route("/vendor/products", func(r chi.Router) {
			r.Get("/", controllers.VendorProducts(deps.Catalog, logg))
			r.Post("/", controllers.VendorCreateProduct(deps.Catalog, logg))
			r.Post("/bulk", controllers.VendorBulkAction(deps.Catalog, logg))
			r.Patch("/{productId}", controllers.VendorUpdateProduct(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.VendorDeleteProduct(deps.Catalog, logg))
		})
	})

	return r
}

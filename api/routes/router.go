package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	carts controllers.CartSessions,
	catalogService catalog.Service,
	pricingEngine controllers.PolicyLookup,
	checkoutSessions controllers.CheckoutSessions,
	wishlistService wishlist.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// a nil *redis.Client must not leak into the interfaces as a non-nil value
	var (
		idempotencyStore redis.IdempotencyStore
		rateLimiter      redis.RateLimiter
	)
	checks := map[string]controllers.Pinger{}
	if dbP != nil {
		checks["db"] = dbP
	}
	if redisClient != nil {
		idempotencyStore = redisClient
		rateLimiter = redisClient
		checks["redis"] = redisClient
	}

	paymentPolicy := middleware.NewRateLimitPolicy(
		"payment",
		cfg.Checkout.PaymentRateWindow,
		cfg.Checkout.PaymentRateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(carts, logg))
			r.Delete("/", controllers.CartClear(carts, logg))
			r.Get("/quote", controllers.CartQuote(carts, pricingEngine, logg))
			r.Post("/items", controllers.CartAddItem(carts, catalogService, logg))
			r.Patch("/items", controllers.CartUpdateItem(carts, logg))
			r.Delete("/items", controllers.CartRemoveItem(carts, logg))
			r.Delete("/products/{productId}", controllers.CartRemoveProduct(carts, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutBegin(checkoutSessions, logg))
			r.Get("/", controllers.CheckoutState(checkoutSessions, logg))
			r.Delete("/", controllers.CheckoutDiscard(checkoutSessions, logg))
			r.Post("/shipping", controllers.CheckoutShipping(checkoutSessions, logg))
			r.Post("/back", controllers.CheckoutBack(checkoutSessions, logg))
			r.With(
				middleware.RateLimit(paymentPolicy, rateLimiter, logg),
				middleware.Idempotency(idempotencyStore, cfg.Payment.IdempotencyTTL, logg),
			).Post("/payment", controllers.CheckoutPayment(checkoutSessions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", controllers.WishlistList(wishlistService, logg))
			r.Post("/{productId}/toggle", controllers.WishlistToggle(wishlistService, logg))
			r.Put("/{productId}", controllers.WishlistAddItem(wishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemoveItem(wishlistService, logg))
		})
	})

	return r
}

// Package http exposes the storefront services over a chi router.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/health"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
)

const serviceName = "storefront"

// Services bundles what the handlers call into.
type Services struct {
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Merge    *service.MergeService
	Coupons  *service.CouponService
	Currency *service.CurrencyService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Content  *service.ContentService
}

// RouterConfig carries the HTTP-layer knobs.
type RouterConfig struct {
	RequestTimeout time.Duration
	SSEHeartbeat   time.Duration
	Session        middleware.SessionConfig
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	VerifyToken    middleware.TokenValidator

	// Limiter throttles the abuse-prone writes: coupon checks, merges,
	// support messages and reviews. Nil disables throttling.
	Limiter *middleware.RateLimiter
}

// NewRouter creates a chi router with every storefront route registered.
func NewRouter(svc Services, cfg RouterConfig, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		throttle = cfg.Limiter.Middleware
	}

	catalog := NewCatalogHandler(svc.Catalog, logger)
	cart := NewCartHandler(svc.Cart, svc.Wishlist, logger)
	session := NewSessionHandler(svc.Merge, logger)
	pricing := NewPricingHandler(svc.Coupons, svc.Currency, logger)
	checkout := NewCheckoutHandler(svc.Checkout, logger)
	orders := NewOrderHandler(svc.Orders, cfg.SSEHeartbeat, logger)
	content := NewContentHandler(svc.Content, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Gateway callbacks carry no session or user token.
		r.With(chimw.Timeout(cfg.RequestTimeout), middleware.RequestLogger(logger)).
			Post("/payments/webhook", checkout.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session))
			r.Use(middleware.OptionalAuth(cfg.VerifyToken))
			r.Use(middleware.RequestLogger(logger))

			// Long-lived streams run without the request timeout.
			r.With(RequireUser).Get("/orders/{id}/events", orders.Events)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(cfg.RequestTimeout))
				r.Use(chimw.Compress(5))

				r.With(middleware.CacheControl(60)).Get("/products", catalog.ListProducts)
				r.With(middleware.CacheControl(60)).Get("/products/{product}", catalog.GetProduct)
				r.Get("/products/{product}/reviews", catalog.ListReviews)
				r.With(RequireUser, throttle).Post("/products/{product}/reviews", catalog.CreateReview)
				r.With(middleware.CacheControl(300)).Get("/categories", catalog.ListCategories)

				r.Get("/blog", content.ListPosts)
				r.Get("/blog/{slug}", content.GetPost)
				r.With(throttle).Post("/support/messages", content.CreateSupportMessage)
				r.With(RequireUser).Post("/custom-orders", content.CreateCustomOrder)
				r.With(RequireUser).Get("/custom-orders", content.ListCustomOrders)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cart.GetCart)
					r.Delete("/", cart.ClearCart)
					r.Post("/items", cart.AddItem)
					r.Patch("/items/{id}", cart.UpdateItem)
					r.Delete("/items/{id}", cart.RemoveItem)
				})

				r.Route("/wishlist", func(r chi.Router) {
					r.Get("/", cart.ListWishlist)
					r.Post("/", cart.AddToWishlist)
					r.Get("/{productID}", cart.WishlistContains)
					r.Delete("/{productID}", cart.RemoveFromWishlist)
				})

				r.Get("/session", session.Get)
				r.With(RequireUser, throttle).Post("/session/merge", session.Merge)

				r.With(throttle).Post("/coupons/validate", pricing.ValidateCoupon)
				r.With(middleware.CacheControl(300)).Get("/currencies", pricing.ListCurrencies)
				r.Get("/currencies/convert", pricing.Convert)

				r.Group(func(r chi.Router) {
					r.Use(RequireUser)
					r.Post("/checkout", checkout.Checkout)
					r.Post("/checkout/verify", checkout.Verify)
					r.Get("/orders", orders.List)
					r.Get("/orders/{id}", orders.Get)
					r.Post("/orders/{id}/cancel", orders.Cancel)
				})
			})
		})
	})

	return r
}

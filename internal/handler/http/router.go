package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brickstemple/storefront/internal/domain"
	"github.com/brickstemple/storefront/internal/ratelimit"
	"github.com/brickstemple/storefront/internal/service"
	"github.com/brickstemple/storefront/pkg/health"
	"github.com/brickstemple/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterDeps carries everything the router wires into handlers and
// middleware.
type RouterDeps struct {
	Wishlists *service.WishlistService
	Orders    *service.OrderService
	Checkout  *service.CheckoutService
	Health    *health.Handler

	Limiter      *ratelimit.Limiter
	LimitOptions ratelimit.Options
	VerifyToken  middleware.TokenValidator
	CORS         middleware.CORSConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware. The limiter runs before any route is resolved.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(deps.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(ratelimit.Middleware(deps.Limiter, deps.LimitOptions))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	wishlistHandler := NewWishlistHandler(deps.Wishlists, deps.Checkout, logger)
	orderHandler := NewOrderHandler(deps.Orders, deps.Checkout, logger)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.VerifyToken))

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.Get)
			r.Post("/add", wishlistHandler.Add)
			r.Delete("/remove/{id}", wishlistHandler.Remove)
			r.Put("/item/{id}", wishlistHandler.UpdateQuantity)
			r.Delete("/clear", wishlistHandler.Clear)
			r.Post("/checkout", wishlistHandler.Checkout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.CreateOrder)
			r.With(adminOnly).Get("/", orderHandler.ListOrders)
			r.Get("/me", orderHandler.ListMyOrders)
			r.Get("/{id}", orderHandler.GetOrder)
			// The service checks existence before the admin role.
			r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
		})
	})

	return r
}

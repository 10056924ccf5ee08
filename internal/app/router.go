package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/storefront/internal/adminauth/adminmiddleware"
	"github.com/linemk/storefront/internal/app/handlers"
	"github.com/linemk/storefront/internal/lib/health"
	"github.com/linemk/storefront/internal/lib/logger/handlers/urllog"
	"github.com/linemk/storefront/internal/lib/metrics"
	"github.com/linemk/storefront/internal/service"
)

// Services: зависимости HTTP-слоя
type Services struct {
	Catalog service.CatalogService
	Carts   service.CartService
	Orders  service.OrderService
	Admin   service.AdminService
}

// RouterOptions: инфраструктура вокруг маршрутов
type RouterOptions struct {
	AllowOrigins []string
	AdminAuth    adminmiddleware.Authorizer
	Health       *health.Health
	Metrics      *metrics.Metrics
}

// NewRouter регистрирует middleware и все маршруты API
func NewRouter(log *slog.Logger, svc Services, opts RouterOptions) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	router.Use(opts.Metrics.Middleware)

	router.Get("/api/health", handlers.HealthHandler(log))
	if opts.Health != nil {
		router.Get("/livez", opts.Health.LiveEndpoint)
		router.Get("/readyz", opts.Health.ReadyEndpoint)
	}

	// каталог
	router.Get("/api/products", handlers.ListProductsHandler(log, svc.Catalog))
	router.Get("/api/products/{id}", handlers.GetProductHandler(log, svc.Catalog))

	// корзина сессии
	router.Route("/api/cart/{sessionId}", func(r chi.Router) {
		r.Get("/", handlers.GetCartHandler(log, svc.Carts))
		r.Delete("/", handlers.ClearCartHandler(log, svc.Carts))
		r.Post("/items", handlers.AddCartItemHandler(log, svc.Carts))
		r.Put("/items/{itemId}", handlers.UpdateCartItemHandler(log, svc.Carts))
		r.Delete("/items/{itemId}", handlers.RemoveCartItemHandler(log, svc.Carts))
	})

	// заказы
	router.Post("/api/orders", handlers.PlaceOrderHandler(log, svc.Orders))
	router.Get("/api/orders/{id}", handlers.GetOrderHandler(log, svc.Orders))

	router.Post("/api/admin/login", handlers.AdminLoginHandler(log, svc.Admin))
	router.Group(func(r chi.Router) {
		r.Use(adminmiddleware.New(log, opts.AdminAuth))

		r.Get("/api/admin/orders", handlers.ListOrdersHandler(log, svc.Orders))
		r.Put("/api/admin/orders/{id}/status", handlers.SetOrderStatusHandler(log, svc.Orders))
		r.Post("/api/admin/products", handlers.CreateProductHandler(log, svc.Catalog))
		r.Put("/api/admin/products/{id}", handlers.UpdateProductHandler(log, svc.Catalog))
		r.Delete("/api/admin/products/{id}", handlers.DeleteProductHandler(log, svc.Catalog))
	})

	return router
}

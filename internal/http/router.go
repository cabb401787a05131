package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Plans     *PlanHandler
	Cart      *CartHandler
	Delivery  *DeliveryHandler
	Checkout  *CheckoutHandler
	Dashboard *DashboardHandler
}

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(hs Handlers, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Get("/plans", hs.Plans.List)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", hs.Cart.GetCart)
			r.Delete("/", hs.Cart.ClearCart)
			r.Get("/count", hs.Cart.Count)
			r.Post("/items", hs.Cart.AddItem)
			r.Put("/items/{plan_id}", hs.Cart.UpdateFrequency)
			r.Delete("/items/{plan_id}", hs.Cart.RemoveItem)
		})
		r.Get("/delivery", hs.Delivery.Get)
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", hs.Checkout.Start)
			r.Get("/{order_id}", hs.Checkout.Status)
			r.Post("/{order_id}/complete", hs.Checkout.Complete)
			r.Post("/{order_id}/dismiss", hs.Checkout.Dismiss)
		})
		r.Get("/gateway/checkout.js", hs.Checkout.Script)
		r.Get("/dashboard", hs.Dashboard.Get)
	})

	return otelhttp.NewHandler(r, "storefront")
}

package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StorefrontDeps struct {
	Cart           *CartHandler
	Checkout       *CheckoutHandler
	Session        *SessionHandler
	Tokens         *auth.Tokens
	RequestTimeout time.Duration
	MaxBodySize    int64
}

func baseRouter(timeout time.Duration, maxBody int64) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Timeout(timeout))
	if maxBody > 0 {
		r.Use(middleware.RequestSize(maxBody))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func NewStorefrontRouter(deps StorefrontDeps) http.Handler {
	r := baseRouter(deps.RequestTimeout, deps.MaxBodySize)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", deps.Session.Issue)

		r.Group(func(r chi.Router) {
			r.Use(SessionAuth(deps.Tokens))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", deps.Cart.GetCart)
				r.Delete("/", deps.Cart.ClearCart)
				r.Post("/items", deps.Cart.AddItem)
				r.Put("/items/{id}", deps.Cart.UpdateQuantity)
				r.Delete("/items/{id}", deps.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", deps.Checkout.Begin)
				r.Get("/", deps.Checkout.Get)
				r.Delete("/", deps.Checkout.Abandon)
				r.Put("/payment-method", deps.Checkout.SelectPaymentMethod)
				r.Post("/submit", deps.Checkout.Submit)
				r.Post("/cancel", deps.Checkout.Cancel)
				r.Post("/confirm", deps.Checkout.Confirm)
			})
		})
	})
	return r
}

func NewOrdersRouter(orders *OrdersHandler, timeout time.Duration, maxBody int64) http.Handler {
	r := baseRouter(timeout, maxBody)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", orders.CreateOrder)
	})
	return r
}

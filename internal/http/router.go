package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Session  *SessionHandler
}

type RouterConfig struct {
	Messages           *i18n.Messages
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// AccessLog enables chi's request logger.
	AccessLog bool
}

func NewRouter(hs Handlers, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	if cfg.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}
	r.Use(middleware.Compress(5))
	r.Use(LanguageMiddleware(cfg.Messages))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/catalog", hs.Catalog.List)
		r.Get("/categories", hs.Catalog.Categories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", hs.Cart.GetCart)
			r.Delete("/", hs.Cart.ClearCart)
			r.Post("/items", hs.Cart.AddItem)
			r.Put("/items/{product_id}", hs.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", hs.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/methods", hs.Checkout.Methods)
			r.Get("/quote", hs.Checkout.Quote)
			r.Post("/", hs.Checkout.Submit)
		})

		r.Get("/orders", hs.Orders.ListOrders)

		r.Put("/session/token", hs.Session.SetToken)
		r.Delete("/session/token", hs.Session.ClearToken)
	})

	return r
}

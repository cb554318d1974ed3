package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/i18n"
)

type OrderLister interface {
	Orders(ctx context.Context, cartID string) ([]domain.PlacedOrder, error)
}

type OrdersHandler struct {
	orders   OrderLister
	messages *i18n.Messages
	timeout  time.Duration
}

func NewOrdersHandler(orders OrderLister, messages *i18n.Messages, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:   orders,
		messages: messages,
		timeout:  timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.Orders(ctx, getCartID(r.Context()))
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	if orders == nil {
		orders = []domain.PlacedOrder{}
	}
	respondJSON(w, http.StatusOK, orders)
}

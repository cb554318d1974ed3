package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type ProductLookup interface {
	Product(ctx context.Context, id string) (domain.Product, error)
}

type CartQuoter interface {
	Quote(ctx context.Context, cartID, shippingID string) ([]domain.CartItem, pricing.Quote, error)
	Methods() checkout.Methods
}

type CartHandler struct {
	carts    cart.Store
	products ProductLookup
	quoter   CartQuoter
	messages *i18n.Messages
	timeout  time.Duration
}

func NewCartHandler(carts cart.Store, products ProductLookup, quoter CartQuoter, messages *i18n.Messages, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		quoter:   quoter,
		messages: messages,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	CartID  string            `json:"cart_id"`
	Items   []domain.CartItem `json:"items"`
	Count   int               `json:"count"`
	Quote   pricing.Quote     `json:"quote"`
	Message string            `json:"message,omitempty"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.cartResponse(ctx, getCartID(r.Context()))
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	if len(resp.Items) == 0 {
		resp.Message = h.messages.Text(languageFromContext(r.Context()), i18n.MsgEmptyCart)
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if !domain.ValidQuantity(req.Quantity) {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	lang := languageFromContext(r.Context())
	product, err := h.products.Product(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	if !product.InStock() {
		respondError(w, http.StatusConflict, "out_of_stock", h.messages.Text(lang, i18n.MsgOutOfStock))
		return
	}

	cartID := getCartID(r.Context())
	if err := h.carts.Add(ctx, cartID, domain.CartItemFromProduct(product, req.Quantity)); err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	resp, err := h.cartResponse(ctx, cartID)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	resp.Message = h.messages.Text(lang, i18n.MsgAddedToCart, product.Name)
	respondJSON(w, http.StatusCreated, resp)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !domain.ValidQuantity(req.Quantity) {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cartID := getCartID(r.Context())
	if err := h.carts.UpdateQuantity(ctx, cartID, productID, req.Quantity); err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	resp, err := h.cartResponse(ctx, cartID)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	cartID := getCartID(r.Context())
	if err := h.carts.Remove(ctx, cartID, productID); err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	resp, err := h.cartResponse(ctx, cartID)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx, getCartID(r.Context())); err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cartResponse prices the cart with the first configured shipping method.
func (h *CartHandler) cartResponse(ctx context.Context, cartID string) (CartResponseDTO, error) {
	shippingID := ""
	if methods := h.quoter.Methods(); len(methods.Shipping) > 0 {
		shippingID = methods.Shipping[0].ID
	}

	items, quote, err := h.quoter.Quote(ctx, cartID, shippingID)
	if err != nil {
		return CartResponseDTO{}, err
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return CartResponseDTO{CartID: cartID, Items: items, Count: count, Quote: quote}, nil
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

type CheckoutService interface {
	CartQuoter
	Submit(ctx context.Context, cartID string, req checkout.Request) (*checkout.Result, error)
}

type CheckoutHandler struct {
	svc      CheckoutService
	messages *i18n.Messages
	timeout  time.Duration
}

func NewCheckoutHandler(svc CheckoutService, messages *i18n.Messages, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		svc:      svc,
		messages: messages,
		timeout:  timeout,
	}
}

type ShippingMethodDTO struct {
	ID           string `json:"id"`
	Fee          int64  `json:"fee"`
	FeeFormatted string `json:"fee_formatted"`
	Label        string `json:"label"`
}

type PaymentMethodDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type MethodsResponseDTO struct {
	Shipping []ShippingMethodDTO `json:"shipping"`
	Payment  []PaymentMethodDTO  `json:"payment"`
}

type QuoteResponseDTO struct {
	Quote          pricing.Quote `json:"quote"`
	TotalFormatted string        `json:"total_formatted"`
}

type CheckoutResponseDTO struct {
	Order   domain.PlacedOrder `json:"order"`
	Quote   pricing.Quote      `json:"quote"`
	Message string             `json:"message"`
}

// GET /api/v1/checkout/methods
func (h *CheckoutHandler) Methods(w http.ResponseWriter, r *http.Request) {
	lang := languageFromContext(r.Context())
	methods := h.svc.Methods()

	resp := MethodsResponseDTO{
		Shipping: make([]ShippingMethodDTO, 0, len(methods.Shipping)),
		Payment:  make([]PaymentMethodDTO, 0, len(methods.Payment)),
	}
	for _, m := range methods.Shipping {
		resp.Shipping = append(resp.Shipping, ShippingMethodDTO{
			ID:           m.ID,
			Fee:          m.Fee,
			FeeFormatted: h.formatFee(lang, m.Fee),
			Label:        pickLabel(m.Label, h.messages.ShippingLabel(lang, m.ID), m.ID),
		})
	}
	for _, m := range methods.Payment {
		resp.Payment = append(resp.Payment, PaymentMethodDTO{
			ID:    m.ID,
			Label: pickLabel(m.Label, h.messages.PaymentLabel(lang, m.ID), m.ID),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/checkout/quote?shipping=
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shippingID := r.URL.Query().Get("shipping")
	if shippingID == "" {
		if methods := h.svc.Methods(); len(methods.Shipping) > 0 {
			shippingID = methods.Shipping[0].ID
		}
	}

	_, quote, err := h.svc.Quote(ctx, getCartID(r.Context()), shippingID)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	respondJSON(w, http.StatusOK, QuoteResponseDTO{
		Quote:          quote,
		TotalFormatted: pricing.Format(quote.Total, languageFromContext(r.Context())),
	})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.svc.Submit(ctx, getCartID(r.Context()), req)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Order:   res.Order,
		Quote:   res.Quote,
		Message: h.messages.Text(languageFromContext(r.Context()), i18n.MsgOrderSuccess),
	})
}

func (h *CheckoutHandler) formatFee(lang language.Tag, fee int64) string {
	if fee == 0 {
		return h.messages.Text(lang, i18n.MsgFree)
	}
	return pricing.Format(decimal.NewFromInt(fee), lang)
}

// pickLabel returns the first non-empty label: configured, then translated, then the id.
func pickLabel(labels ...string) string {
	for _, l := range labels {
		if l != "" {
			return l
		}
	}
	return ""
}

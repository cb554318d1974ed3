package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/apiclient"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/sony/gobreaker/v2"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps service errors to HTTP responses. Upstream and unexpected
// failures get the generic localized message; details are only logged.
func handleError(w http.ResponseWriter, r *http.Request, messages *i18n.Messages, err error) {
	lang := languageFromContext(r.Context())

	var (
		status  int
		code    string
		message string
	)

	var statusErr *apiclient.StatusError
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "session_expired"
		message = messages.Text(lang, i18n.MsgSessionExpired)
	case errors.Is(err, checkout.ErrEmptyCart):
		status, code = http.StatusBadRequest, "empty_cart"
		message = messages.Text(lang, i18n.MsgEmptyCart)
	case errors.Is(err, checkout.ErrInvalidRecipient):
		status, code, message = http.StatusBadRequest, "invalid_recipient", err.Error()
	case errors.Is(err, checkout.ErrUnknownMethod):
		status, code, message = http.StatusBadRequest, "unknown_method", err.Error()
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		status, code, message = http.StatusConflict, "submission_in_progress", err.Error()
	case errors.Is(err, checkout.ErrSubmissionFailed):
		status, code = http.StatusBadGateway, "order_failed"
		message = messages.Text(lang, i18n.MsgOrderFailed)
	case errors.Is(err, cart.ErrItemNotFound):
		status, code, message = http.StatusNotFound, "item_not_found", "item is not in the cart"
	case errors.Is(err, cart.ErrInvalidQuantity):
		status, code, message = http.StatusBadRequest, "invalid_quantity", err.Error()
	case errors.Is(err, catalog.ErrProductNotFound):
		status, code, message = http.StatusNotFound, "product_not_found", "product not found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
		message = messages.Text(lang, i18n.MsgGenericError)
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
		message = messages.Text(lang, i18n.MsgGenericError)
	case errors.As(err, &statusErr):
		status, code = http.StatusBadGateway, "upstream_error"
		message = messages.Text(lang, i18n.MsgGenericError)
	default:
		status, code = http.StatusInternalServerError, "internal_error"
		message = messages.Text(lang, i18n.MsgGenericError)
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
	}
	respondError(w, status, code, message)
}

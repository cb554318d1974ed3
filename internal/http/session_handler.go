package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/i18n"
)

type TokenWriter interface {
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// SessionHandler persists the bearer token used for upstream calls that carry
// no Authorization header of their own. Tokens are stored per cart id; the
// shared guest cart cannot hold one.
type SessionHandler struct {
	tokens   TokenWriter
	messages *i18n.Messages
}

func NewSessionHandler(tokens TokenWriter, messages *i18n.Messages) *SessionHandler {
	return &SessionHandler{tokens: tokens, messages: messages}
}

type TokenRequestDTO struct {
	Token string `json:"token"`
}

// PUT /api/v1/session/token
func (h *SessionHandler) SetToken(w http.ResponseWriter, r *http.Request) {
	if !ownsSession(r) {
		respondError(w, http.StatusBadRequest, "cart_id_required", "X-Cart-ID is required to store a token")
		return
	}

	var req TokenRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		respondError(w, http.StatusBadRequest, "missing_token", "token is required")
		return
	}

	if err := h.tokens.SetToken(r.Context(), req.Token); err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/v1/session/token
func (h *SessionHandler) ClearToken(w http.ResponseWriter, r *http.Request) {
	if !ownsSession(r) {
		respondError(w, http.StatusBadRequest, "cart_id_required", "X-Cart-ID is required to clear a token")
		return
	}
	if err := h.tokens.ClearToken(r.Context()); err != nil {
		handleError(w, r, h.messages, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ownsSession(r *http.Request) bool {
	return getCartID(r.Context()) != DefaultCartID
}

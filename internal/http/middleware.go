package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/apiclient"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"golang.org/x/text/language"
)

// DefaultCartID identifies the cart of requests without an X-Cart-ID header.
const DefaultCartID = "guest"

const maxCartIDLen = 64

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	cartIDKey    contextKey = "cart_id"
	languageKey  contextKey = "language"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the shopper's cart id, scopes the persisted token
// to it and forwards an incoming bearer token to upstream calls.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cartID := strings.TrimSpace(r.Header.Get("X-Cart-ID"))
		if cartID == "" {
			cartID = DefaultCartID
		}
		if !validCartID(cartID) {
			respondError(w, http.StatusBadRequest, "invalid_cart_id", "X-Cart-ID must be 1-64 letters, digits, '-' or '_'")
			return
		}

		ctx := context.WithValue(r.Context(), cartIDKey, cartID)
		ctx = storage.WithSession(ctx, cartID)
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			ctx = apiclient.WithToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LanguageMiddleware negotiates the response language from Accept-Language.
func LanguageMiddleware(messages *i18n.Messages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := messages.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", lang.String())
			ctx := context.WithValue(r.Context(), languageKey, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func validCartID(id string) bool {
	if len(id) > maxCartIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func getCartID(ctx context.Context) string {
	if cartID, ok := ctx.Value(cartIDKey).(string); ok {
		return cartID
	}
	return DefaultCartID
}

func languageFromContext(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(languageKey).(language.Tag); ok {
		return lang
	}
	return i18n.Supported[0]
}

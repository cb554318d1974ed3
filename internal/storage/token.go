package storage

import (
	"context"
	"errors"
	"strings"
)

// TokenKey is the local storage key holding the bearer token. Tokens saved
// for a session live under TokenKey + ":" + session.
const TokenKey = "token"

type sessionKey struct{}

// WithSession scopes token reads and writes made with ctx to one shopper.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func sessionFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey{}).(string); ok {
		return s
	}
	return ""
}

type TokenStore struct {
	kv KV
}

func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv}
}

func tokenKey(ctx context.Context) string {
	if s := sessionFromContext(ctx); s != "" {
		return TokenKey + ":" + s
	}
	return TokenKey
}

// Token returns the token persisted for the session in ctx, or "" when none is stored.
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	token, err := t.kv.Get(ctx, tokenKey(ctx))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (t *TokenStore) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return t.ClearToken(ctx)
	}
	return t.kv.Set(ctx, tokenKey(ctx), token)
}

func (t *TokenStore) ClearToken(ctx context.Context) error {
	return t.kv.Delete(ctx, tokenKey(ctx))
}

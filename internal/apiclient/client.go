package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "http://localhost:5000"

var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for any non-2xx response other than 401.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Body)
}

// TokenSource yields the persisted bearer token; "" means anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Notifier is told about every 401 so the shopper can be asked to sign in again.
// It never redirects or retries.
type Notifier interface {
	Unauthorized(ctx context.Context)
}

type NotifierFunc func(ctx context.Context)

func (f NotifierFunc) Unauthorized(ctx context.Context) { f(ctx) }

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Tokens    TokenSource
	Notifier  Notifier
	Transport http.RoundTripper
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit; zero disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	Logger          *slog.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	notifier   Notifier
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	logger     *slog.Logger
}

type rawResponse struct {
	status int
	body   []byte
}

func New(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		baseURL:  baseURL,
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
		logger:   logger,
	}

	if cfg.BreakerFailures > 0 {
		openFor := cfg.BreakerTimeout
		if openFor <= 0 {
			openFor = 30 * time.Second
		}
		threshold := cfg.BreakerFailures
		c.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
			Name:        "shop-api",
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return c
}

type tokenKey struct{}

// WithToken attaches a bearer token to ctx; it takes precedence over the
// persisted token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	return ""
}

// Do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, method, path string, in any, out any, header http.Header) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	send := func() (*rawResponse, error) {
		return c.send(ctx, method, path, body, header)
	}

	var (
		res *rawResponse
		err error
	)
	if c.breaker != nil {
		res, err = c.breaker.Execute(send)
	} else {
		res, err = send()
	}
	if err != nil {
		return err
	}

	if res.status == http.StatusUnauthorized {
		if c.notifier != nil {
			c.notifier.Unauthorized(ctx)
		}
		return ErrUnauthorized
	}
	if res.status < 200 || res.status > 299 {
		return &StatusError{StatusCode: res.status, Body: truncate(string(res.body), 512)}
	}

	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs one round trip. Transport failures and 5xx count against the breaker.
func (c *Client) send(ctx context.Context, method, path string, body []byte, header http.Header) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	res := &rawResponse{status: resp.StatusCode, body: data}
	if resp.StatusCode >= 500 {
		return res, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
	}
	return res, nil
}

func (c *Client) bearer(ctx context.Context) string {
	if token := tokenFromContext(ctx); token != "" {
		return token
	}
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("failed to read persisted token", "error", err)
		return ""
	}
	return token
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

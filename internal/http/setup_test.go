package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/apiclient"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// --- fake upstream shop API ---

type upstream struct {
	mu          sync.Mutex
	products    []domain.Product
	categories  []domain.Category
	status      int // overrides every response status when non-zero
	orderStatus int // overrides the order endpoint status when non-zero
	orders      []map[string]interface{}
	orderKeys   []string
	authHeaders []string
	server      *httptest.Server
}

func newUpstream(t *testing.T) *upstream {
	up := &upstream{
		products:   testProducts(),
		categories: []domain.Category{{ID: "fruit", Name: "Trái cây"}, {ID: "veg", Name: "Rau củ"}},
	}
	up.server = httptest.NewServer(http.HandlerFunc(up.serve))
	t.Cleanup(up.server.Close)
	return up
}

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.authHeaders = append(u.authHeaders, r.Header.Get("Authorization"))

	if u.status != 0 {
		w.WriteHeader(u.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/products":
		json.NewEncoder(w).Encode(u.products)
	case "/api/categories":
		json.NewEncoder(w).Encode(u.categories)
	case "/api/orders":
		if u.orderStatus != 0 {
			w.WriteHeader(u.orderStatus)
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		u.orders = append(u.orders, body)
		u.orderKeys = append(u.orderKeys, r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"order":   map[string]string{"_id": "remote-42", "orderStatus": "Processing"},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (u *upstream) lastAuth() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.authHeaders) == 0 {
		return ""
	}
	return u.authHeaders[len(u.authHeaders)-1]
}

func (u *upstream) set(fn func(u *upstream)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(u)
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Táo Envy", Category: "fruit", Price: 100000, Discount: 10, Stock: 5, Image: "https://img/tao.png"},
		{ID: "p2", Name: "Cam sành", Category: "fruit", Price: 45000, Stock: 20},
		{ID: "p3", Name: "Bắp cải", Category: "veg", Price: 18000, Stock: 0},
		{ID: "p4", Name: "Cà rốt", Category: "veg", Price: 22000, Stock: 8},
		{ID: "p5", Name: "Chuối", Category: "fruit", Price: 30000, Stock: 3},
		{ID: "p6", Name: "Dưa hấu", Category: "fruit", Price: 60000, Stock: 2},
		{ID: "p7", Name: "Xoài cát", Category: "fruit", Price: 80000, Stock: 9},
		{ID: "p8", Name: "Rau muống", Category: "veg", Price: 12000, Stock: 15},
		{ID: "p9", Name: "Nho Mỹ", Category: "fruit", Price: 150000, Stock: 4},
		{ID: "p10", Name: "Ổi", Category: "fruit", Price: 25000, Stock: 7},
		{ID: "p11", Name: "Khoai lang", Category: "veg", Price: 28000, Stock: 6},
	}
}

// --- test environment ---

type testEnv struct {
	router       chi.Router
	up           *upstream
	carts        *cart.MemoryStore
	tokens       *storage.TokenStore
	unauthorized atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(""))
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		up:     newUpstream(t),
		carts:  cart.NewMemoryStore(),
		tokens: storage.NewTokenStore(storage.NewKV(db)),
	}

	client := apiclient.New(apiclient.Config{
		BaseURL: env.up.server.URL,
		Timeout: 5 * time.Second,
		Tokens:  env.tokens,
		Notifier: apiclient.NotifierFunc(func(context.Context) {
			env.unauthorized.Add(1)
		}),
		Logger: logger,
	})

	messages := i18n.New()
	loader := catalog.NewLoader(client, nil, logger)
	svc := checkout.NewService(env.carts, client, checkout.NewSQLiteRepository(db), checkout.DefaultMethods(), logger)

	env.router = NewRouter(Handlers{
		Catalog:  NewCatalogHandler(loader, language.Vietnamese, messages, 5*time.Second),
		Cart:     NewCartHandler(env.carts, loader, svc, messages, 5*time.Second),
		Checkout: NewCheckoutHandler(svc, messages, 5*time.Second),
		Orders:   NewOrdersHandler(svc, messages, 5*time.Second),
		Session:  NewSessionHandler(env.tokens, messages),
	}, RouterConfig{
		Messages:           messages,
		RequestTimeout:     10 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

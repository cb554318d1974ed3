package http

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"golang.org/x/text/language"
)

type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

type CatalogHandler struct {
	loader   CatalogLoader
	locale   language.Tag
	messages *i18n.Messages
	timeout  time.Duration
}

func NewCatalogHandler(loader CatalogLoader, locale language.Tag, messages *i18n.Messages, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		loader:   loader,
		locale:   locale,
		messages: messages,
		timeout:  timeout,
	}
}

type PriceRangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type CatalogResponseDTO struct {
	catalog.Page
	Sort       catalog.SortKey `json:"sort"`
	PriceRange *PriceRangeDTO  `json:"price_range,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// GET /api/v1/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, err := parseQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	snapshot, err := h.loader.Load(ctx)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	opts := catalog.Options{Locale: h.locale}
	page := catalog.Run(snapshot.Products, q, opts)
	if clamped := catalog.ClampPage(q.Page, page.TotalPages); clamped != q.Page {
		q.Page = clamped
		page = catalog.Run(snapshot.Products, q, opts)
	}

	resp := CatalogResponseDTO{Page: page, Sort: q.Sort}
	if lo, hi, ok := catalog.PriceRange(snapshot.Products); ok {
		resp.PriceRange = &PriceRangeDTO{Min: lo, Max: hi}
	}
	if page.TotalItems == 0 {
		resp.Message = h.messages.Text(languageFromContext(r.Context()), i18n.MsgNoProducts)
	}

	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snapshot, err := h.loader.Load(ctx)
	if err != nil {
		handleError(w, r, h.messages, err)
		return
	}

	categories := snapshot.Categories
	if categories == nil {
		categories = []domain.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

type queryError string

func (e queryError) Error() string { return string(e) }

// parseQuery rebuilds the catalog query from URL parameters, defaulting every
// missing field.
func parseQuery(r *http.Request) (catalog.Query, error) {
	values := r.URL.Query()
	q := catalog.DefaultQuery()

	q.Search = strings.TrimSpace(values.Get("q"))
	if c := values.Get("category"); c != "" {
		q.Category = c
	}
	q.Sort = catalog.ParseSortKey(values.Get("sort"))

	var err error
	if q.MinPrice, err = parsePrice(values.Get("min_price")); err != nil {
		return q, queryError("min_price must be a non-negative number")
	}
	if q.MaxPrice, err = parsePrice(values.Get("max_price")); err != nil {
		return q, queryError("max_price must be a non-negative number")
	}

	if p := values.Get("page"); p != "" {
		page, errPage := strconv.Atoi(p)
		if errPage == nil && page > 0 {
			q.Page = page
		}
	}
	return q, nil
}

func parsePrice(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, queryError("invalid price")
	}
	return &v, nil
}

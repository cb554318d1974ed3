// Package catalog turns the full product list into the page a shopper sees.
//
// The transformation is a fixed, ordered pipeline of pure stages:
// Filter, then Sort, then Paginate. None of them mutates its input.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const PageSize = 9

type SortKey string

const (
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
)

// ParseSortKey maps unknown keys to SortNameAsc.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return k
	default:
		return SortNameAsc
	}
}

// Query is the shopper's filter/sort/page state. Nil bounds are not applied.
type Query struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     SortKey
	Page     int
}

func DefaultQuery() Query {
	return Query{
		Category: domain.AllCategories,
		Sort:     SortNameAsc,
		Page:     1,
	}
}

type Options struct {
	// Locale drives name collation. The zero value collates with the root locale.
	Locale   language.Tag
	PageSize int
}

type Page struct {
	Items      []domain.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalItems int              `json:"total_items"`
}

// Stage is one pure step of the catalog pipeline.
type Stage func([]domain.Product) []domain.Product

// Stages returns the filter and sort stages for q, in application order.
func Stages(q Query, opts Options) []Stage {
	return []Stage{
		func(p []domain.Product) []domain.Product { return Filter(p, q) },
		func(p []domain.Product) []domain.Product { return Sort(p, q.Sort, opts.Locale) },
	}
}

// Run filters, sorts and slices products. Page bounds are not clamped: an
// out-of-range page yields no items.
func Run(products []domain.Product, q Query, opts Options) Page {
	result := products
	for _, stage := range Stages(q, opts) {
		result = stage(result)
	}

	size := opts.PageSize
	if size <= 0 {
		size = PageSize
	}
	items, totalPages := Paginate(result, q.Page, size)

	return Page{
		Items:      items,
		Page:       q.Page,
		TotalPages: totalPages,
		TotalItems: len(result),
	}
}

// Filter keeps a product iff its name contains the search text (case-insensitive),
// its category matches (or the query selects all categories), and its price lies
// within the provided bounds. A min bound above the max bound matches nothing.
func Filter(products []domain.Product, q Query) []domain.Product {
	fold := cases.Fold()
	needle := fold.String(q.Search)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(fold.String(p.Name), needle) {
			continue
		}
		if q.Category != "" && q.Category != domain.AllCategories && p.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort returns a sorted copy. Equal keys keep their input order.
func Sort(products []domain.Product, key SortKey, locale language.Tag) []domain.Product {
	out := slices.Clone(products)
	if out == nil {
		out = []domain.Product{}
	}

	switch ParseSortKey(string(key)) {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortNameDesc:
		col := collate.New(locale)
		slices.SortStableFunc(out, func(a, b domain.Product) int { return col.CompareString(b.Name, a.Name) })
	default:
		col := collate.New(locale)
		slices.SortStableFunc(out, func(a, b domain.Product) int { return col.CompareString(a.Name, b.Name) })
	}
	return out
}

// Paginate returns the 1-based page of the given size and the total page count.
func Paginate(products []domain.Product, page, size int) ([]domain.Product, int) {
	if size <= 0 {
		size = PageSize
	}
	totalPages := (len(products) + size - 1) / size

	start := (page - 1) * size
	if page < 1 || start >= len(products) {
		return []domain.Product{}, totalPages
	}
	end := min(start+size, len(products))
	return slices.Clone(products[start:end]), totalPages
}

// ClampPage keeps page within [1, totalPages]; with no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PriceRange reports the lowest and highest price; ok is false for an empty list.
func PriceRange(products []domain.Product) (lo, hi float64, ok bool) {
	if len(products) == 0 {
		return 0, 0, false
	}
	lo, hi = products[0].Price, products[0].Price
	for _, p := range products[1:] {
		lo = min(lo, p.Price)
		hi = max(hi, p.Price)
	}
	return lo, hi, true
}

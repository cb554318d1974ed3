// Package pricing computes checkout amounts from cart lines and a shipping choice.
package pricing

import (
	"encoding/json"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the priced breakdown of a cart. Tax is always zero.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	ShippingID string
	// ShippingKnown is false when ShippingID matched no method and the fee fell back to zero.
	ShippingKnown bool
}

// LineTotal is price × (1 − discount/100) × quantity.
func LineTotal(item domain.CartItem) decimal.Decimal {
	price := decimal.NewFromFloat(item.Price)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(item.Discount).Div(hundred))
	return price.Mul(factor).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Subtotal sums the line totals.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineTotal(item))
	}
	return sum
}

// Compute prices items with the shipping method shippingID. An unknown id costs nothing.
func Compute(items []domain.CartItem, shippingID string, methods []domain.ShippingMethod) Quote {
	subtotal := Subtotal(items)

	fee := decimal.Zero
	method, known := domain.FindShipping(methods, shippingID)
	if known {
		fee = decimal.NewFromInt(method.Fee)
	}

	return Quote{
		Subtotal:      subtotal,
		Shipping:      fee,
		Tax:           decimal.Zero,
		Total:         subtotal.Add(fee),
		ShippingID:    shippingID,
		ShippingKnown: known,
	}
}

// Totals converts the quote into the amounts carried by an order payload.
func (q Quote) Totals() domain.OrderTotals {
	return domain.OrderTotals{
		ItemsPrice:    q.Subtotal.InexactFloat64(),
		TaxPrice:      q.Tax.InexactFloat64(),
		ShippingPrice: q.Shipping.InexactFloat64(),
		TotalAmount:   q.Total.InexactFloat64(),
	}
}

type quoteWire struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Method   string  `json:"shipping_method"`
}

func (q Quote) MarshalJSON() ([]byte, error) {
	t := q.Totals()
	return json.Marshal(quoteWire{
		Subtotal: t.ItemsPrice,
		Shipping: t.ShippingPrice,
		Tax:      t.TaxPrice,
		Total:    t.TotalAmount,
		Method:   q.ShippingID,
	})
}

func (q *Quote) UnmarshalJSON(data []byte) error {
	var w quoteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*q = Quote{
		Subtotal:   decimal.NewFromFloat(w.Subtotal),
		Shipping:   decimal.NewFromFloat(w.Shipping),
		Tax:        decimal.NewFromFloat(w.Tax),
		Total:      decimal.NewFromFloat(w.Total),
		ShippingID: w.Method,
	}
	return nil
}

package pricing

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name string
		item domain.CartItem
		want decimal.Decimal
	}{
		{"no discount", domain.CartItem{Price: 50000, Quantity: 3}, dec(150000)},
		{"ten percent", domain.CartItem{Price: 100000, Discount: 10, Quantity: 2}, dec(180000)},
		{"full discount", domain.CartItem{Price: 99000, Discount: 100, Quantity: 4}, dec(0)},
		{"fractional", domain.CartItem{Price: 33333, Discount: 15, Quantity: 1}, decimal.RequireFromString("28333.05")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.item)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestLineTotal_NeverExceedsUndiscounted(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for range 500 {
		item := domain.CartItem{
			Price:    float64(rng.Intn(10_000_000)),
			Discount: float64(rng.Intn(101)),
			Quantity: 1 + rng.Intn(domain.MaxQuantity),
		}
		full := decimal.NewFromFloat(item.Price).Mul(dec(int64(item.Quantity)))
		got := LineTotal(item)

		assert.True(t, got.LessThanOrEqual(full), "%+v: %s > %s", item, got, full)
		assert.False(t, got.IsNegative())

		item.Discount = 0
		assert.True(t, LineTotal(item).Equal(full))
	}
}

func TestCompute_Scenario(t *testing.T) {
	items := []domain.CartItem{{ProductID: "p1", Price: 100000, Discount: 10, Quantity: 2}}

	q := Compute(items, domain.ShippingStandard, domain.DefaultShippingMethods())

	assert.True(t, dec(180000).Equal(q.Subtotal))
	assert.True(t, dec(20000).Equal(q.Shipping))
	assert.True(t, q.Tax.IsZero())
	assert.True(t, dec(200000).Equal(q.Total))
	assert.True(t, q.ShippingKnown)

	totals := q.Totals()
	assert.Equal(t, domain.OrderTotals{ItemsPrice: 180000, ShippingPrice: 20000, TotalAmount: 200000}, totals)
}

func TestCompute_TotalIsSubtotalPlusShipping(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	methods := domain.DefaultShippingMethods()

	for range 200 {
		items := make([]domain.CartItem, rng.Intn(6))
		sum := decimal.Zero
		for i := range items {
			items[i] = domain.CartItem{
				Price:    float64(rng.Intn(500_000)),
				Discount: float64(rng.Intn(101)),
				Quantity: 1 + rng.Intn(5),
			}
			sum = sum.Add(LineTotal(items[i]))
		}
		method := methods[rng.Intn(len(methods))]

		q := Compute(items, method.ID, methods)
		assert.True(t, sum.Equal(q.Subtotal))
		assert.True(t, q.Subtotal.Add(dec(method.Fee)).Equal(q.Total))
	}
}

func TestCompute_UnknownShippingCostsNothing(t *testing.T) {
	items := []domain.CartItem{{Price: 1000, Quantity: 1}}

	q := Compute(items, "drone", domain.DefaultShippingMethods())
	assert.False(t, q.ShippingKnown)
	assert.True(t, q.Shipping.IsZero())
	assert.True(t, dec(1000).Equal(q.Total))
}

func TestCompute_EmptyCart(t *testing.T) {
	q := Compute(nil, domain.ShippingExpress, domain.DefaultShippingMethods())
	assert.True(t, q.Subtotal.IsZero())
	assert.True(t, dec(40000).Equal(q.Total))
}

func TestQuote_MarshalJSON(t *testing.T) {
	q := Compute([]domain.CartItem{{Price: 100000, Discount: 10, Quantity: 2}}, domain.ShippingStandard, domain.DefaultShippingMethods())

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtotal":180000,"shipping":20000,"tax":0,"total":200000,"shipping_method":"standard"}`, string(data))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "VND", vnd.String())

	vi := Format(dec(180000), language.Vietnamese)
	assert.Contains(t, vi, "180")
	assert.Contains(t, vi, "000")

	en := Format(decimal.RequireFromString("200000.4"), language.English)
	assert.Contains(t, en, "200")
	assert.NotContains(t, en, ".4")
}

func TestQuote_UnmarshalJSON(t *testing.T) {
	var q Quote
	require.NoError(t, json.Unmarshal([]byte(`{"subtotal":180000,"shipping":20000,"tax":0,"total":200000,"shipping_method":"standard"}`), &q))

	assert.True(t, dec(180000).Equal(q.Subtotal))
	assert.True(t, dec(200000).Equal(q.Total))
	assert.Equal(t, "standard", q.ShippingID)
}

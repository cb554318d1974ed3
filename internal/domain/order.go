package domain

import (
	"encoding/json"
	"time"
)

type Recipient struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type OrderItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
	ProductID string  `json:"product"`
	Image     string  `json:"image"`
}

type ShippingInfo struct {
	Name    string `json:"name"`
	PhoneNo string `json:"phoneNo"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type PaymentInfo struct {
	Method string `json:"method"`
}

// OrderTotals are the amounts computed by pricing at submission time.
type OrderTotals struct {
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalAmount   float64
}

// OrderPayload is the snapshot sent to the order-creation endpoint. Its fields are
// unexported so nothing can change it after NewOrderPayload returns.
type OrderPayload struct {
	items    []OrderItem
	shipping ShippingInfo
	payment  PaymentInfo
	totals   OrderTotals
}

func NewOrderPayload(items []OrderItem, shipping ShippingInfo, payment PaymentInfo, totals OrderTotals) *OrderPayload {
	cp := make([]OrderItem, len(items))
	copy(cp, items)
	return &OrderPayload{
		items:    cp,
		shipping: shipping,
		payment:  payment,
		totals:   totals,
	}
}

// Items returns a copy of the order lines.
func (o *OrderPayload) Items() []OrderItem {
	cp := make([]OrderItem, len(o.items))
	copy(cp, o.items)
	return cp
}

func (o *OrderPayload) ShippingInfo() ShippingInfo { return o.shipping }
func (o *OrderPayload) PaymentInfo() PaymentInfo   { return o.payment }
func (o *OrderPayload) Totals() OrderTotals        { return o.totals }

type orderWire struct {
	OrderItems    []OrderItem  `json:"orderItems"`
	ShippingInfo  ShippingInfo `json:"shippingInfo"`
	PaymentInfo   PaymentInfo  `json:"paymentInfo"`
	ItemsPrice    float64      `json:"itemsPrice"`
	TaxPrice      float64      `json:"taxPrice"`
	ShippingPrice float64      `json:"shippingPrice"`
	TotalAmount   float64      `json:"totalAmount"`
}

func (o *OrderPayload) MarshalJSON() ([]byte, error) {
	items := o.items
	if items == nil {
		items = []OrderItem{}
	}
	return json.Marshal(orderWire{
		OrderItems:    items,
		ShippingInfo:  o.shipping,
		PaymentInfo:   o.payment,
		ItemsPrice:    o.totals.ItemsPrice,
		TaxPrice:      o.totals.TaxPrice,
		ShippingPrice: o.totals.ShippingPrice,
		TotalAmount:   o.totals.TotalAmount,
	})
}

// CreatedOrder is the upstream confirmation of a created order.
type CreatedOrder struct {
	ID     string `json:"_id"`
	Status string `json:"orderStatus,omitempty"`
}

// PlacedOrder is a locally recorded, successfully submitted order.
type PlacedOrder struct {
	ID             string          `json:"id"`
	CartID         string          `json:"cart_id"`
	RemoteID       string          `json:"remote_id,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	TotalAmount    float64         `json:"total_amount"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

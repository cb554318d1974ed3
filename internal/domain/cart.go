package domain

import "time"

// MaxQuantity caps a single cart line.
const MaxQuantity = 99

type CartItem struct {
	ProductID string    `json:"productId" bson:"product_id"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Discount  float64   `json:"discount" bson:"discount"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	AddedAt   time.Time `json:"-" bson:"added_at"`
}

// CartItemFromProduct captures the product fields a cart line needs at "add to cart" time.
func CartItemFromProduct(p Product, quantity int) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Discount:  p.Discount,
		Quantity:  quantity,
		Image:     p.Image,
	}
}

// ValidQuantity reports whether q is an acceptable line quantity.
func ValidQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}

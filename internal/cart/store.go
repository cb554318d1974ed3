package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", domain.MaxQuantity)
)

// Store holds shopper carts keyed by cart id. Adding a product that is already
// in the cart increases its quantity. Clearing a missing cart is not an error.
type Store interface {
	Items(ctx context.Context, cartID string) ([]domain.CartItem, error)
	Add(ctx context.Context, cartID string, item domain.CartItem) error
	UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error
	Remove(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

func mergedQuantity(existing, added int) (int, error) {
	q := existing + added
	if !domain.ValidQuantity(q) {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

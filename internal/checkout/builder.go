package checkout

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
)

// PlaceholderImage replaces blank item images in submitted orders.
const PlaceholderImage = "https://via.placeholder.com/150?text=No+Image"

// BuildOrder assembles the immutable order payload from the cart lines, the
// recipient, the payment choice and an already computed quote.
func BuildOrder(items []domain.CartItem, recipient domain.Recipient, paymentID string, quote pricing.Quote) (*domain.OrderPayload, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := validateRecipient(recipient); err != nil {
		return nil, err
	}

	lines := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		image := strings.TrimSpace(item.Image)
		if image == "" {
			image = PlaceholderImage
		}
		lines = append(lines, domain.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Discount:  item.Discount,
			ProductID: item.ProductID,
			Image:     image,
		})
	}

	shipping := domain.ShippingInfo{
		Name:    recipient.Name,
		PhoneNo: recipient.Phone,
		City:    recipient.City,
		Address: recipient.Address,
	}

	return domain.NewOrderPayload(lines, shipping, domain.PaymentInfo{Method: paymentID}, quote.Totals()), nil
}

func validateRecipient(r domain.Recipient) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", r.Name},
		{"phone", r.Phone},
		{"city", r.City},
		{"address", r.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidRecipient, f.name)
		}
	}
	return nil
}

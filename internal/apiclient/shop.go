package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	productsPath   = "/api/products"
	categoriesPath = "/api/categories"
	ordersPath     = "/api/orders"
)

func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.Do(ctx, http.MethodGet, productsPath, nil, &products, nil); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (c *Client) GetCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.Do(ctx, http.MethodGet, categoriesPath, nil, &categories, nil); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

type createOrderResponse struct {
	Order *domain.CreatedOrder `json:"order"`
	domain.CreatedOrder
}

// CreateOrder posts the order once; there is no retry.
func (c *Client) CreateOrder(ctx context.Context, order *domain.OrderPayload, idempotencyKey string) (*domain.CreatedOrder, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}

	var res createOrderResponse
	if err := c.Do(ctx, http.MethodPost, ordersPath, order, &res, header); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if res.Order != nil {
		return res.Order, nil
	}
	created := res.CreatedOrder
	return &created, nil
}

package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// MemoryStore keeps carts in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]domain.CartItem)}
}

func (s *MemoryStore) Items(_ context.Context, cartID string) ([]domain.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.carts[cartID]
	result := make([]domain.CartItem, len(items))
	copy(result, items)
	return result, nil
}

func (s *MemoryStore) Add(_ context.Context, cartID string, item domain.CartItem) error {
	if !domain.ValidQuantity(item.Quantity) {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[cartID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			q, err := mergedQuantity(items[i].Quantity, item.Quantity)
			if err != nil {
				return err
			}
			items[i].Quantity = q
			return nil
		}
	}

	item.AddedAt = time.Now()
	s.carts[cartID] = append(items, item)
	return nil
}

func (s *MemoryStore) UpdateQuantity(_ context.Context, cartID, productID string, quantity int) error {
	if !domain.ValidQuantity(quantity) {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) Remove(_ context.Context, cartID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[cartID]
	for i, item := range items {
		if item.ProductID == productID {
			s.carts[cartID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) Clear(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}

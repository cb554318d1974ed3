package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

// MockOrderCreator implements OrderCreator for testing
type MockOrderCreator struct {
	mu       sync.Mutex
	Calls    int
	Payloads []*domain.OrderPayload
	Keys     []string
	Created  *domain.CreatedOrder
	Err      error
	// Started is signalled when a call begins; Release, if set, blocks the call until closed.
	Started chan struct{}
	Release chan struct{}
}

func (m *MockOrderCreator) CreateOrder(ctx context.Context, order *domain.OrderPayload, key string) (*domain.CreatedOrder, error) {
	m.mu.Lock()
	m.Calls++
	m.Payloads = append(m.Payloads, order)
	m.Keys = append(m.Keys, key)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- struct{}{}
	}
	if m.Release != nil {
		<-m.Release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Created != nil {
		return m.Created, nil
	}
	return &domain.CreatedOrder{ID: "remote-1", Status: "Processing"}, nil
}

func (m *MockOrderCreator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// clearFailingStore is a cart store whose Clear always fails
type clearFailingStore struct {
	*cart.MemoryStore
	err error
}

func (s *clearFailingStore) Clear(context.Context, string) error {
	return s.err
}

// MockWriter implements messageWriter for testing
type MockWriter struct {
	mu       sync.Mutex
	Messages []kafka.Message
	// FailKeys rejects messages with these keys.
	FailKeys map[string]error
	Closed   bool
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if err := w.FailKeys[string(m.Key)]; err != nil {
			return err
		}
	}
	w.Messages = append(w.Messages, msgs...)
	return nil
}

func (w *MockWriter) Close() error {
	w.Closed = true
	return nil
}

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(""))
	t.Cleanup(func() { db.Close() })
	return db
}

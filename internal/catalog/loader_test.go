package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	products      []domain.Product
	categories    []domain.Category
	productsErr   error
	categoriesErr error
	delay         time.Duration

	productCalls  atomic.Int32
	categoryCalls atomic.Int32
	// inFlight counts concurrently running fetches.
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeSource) enter() {
	n := f.inFlight.Add(1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(f.delay)
	f.inFlight.Add(-1)
}

func (f *fakeSource) GetProducts(ctx context.Context) ([]domain.Product, error) {
	f.productCalls.Add(1)
	f.enter()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.products, f.productsErr
}

func (f *fakeSource) GetCategories(ctx context.Context) ([]domain.Category, error) {
	f.categoryCalls.Add(1)
	f.enter()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.categories, f.categoriesErr
}

type memCache struct {
	mu       sync.Mutex
	snapshot *Snapshot
	getErr   error
}

func (m *memCache) Get(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.snapshot == nil {
		return nil, ErrCacheMiss
	}
	return m.snapshot, nil
}

func (m *memCache) Set(_ context.Context, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
	return nil
}

func (m *memCache) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoader_LoadFetchesBothConcurrently(t *testing.T) {
	src := &fakeSource{
		products:   sampleProducts(),
		categories: []domain.Category{{ID: "fruit", Name: "Fruit"}, {ID: "veg", Name: "Veg"}},
		delay:      50 * time.Millisecond,
	}
	loader := NewLoader(src, nil, quietLogger())

	snapshot, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Products, 6)
	assert.Len(t, snapshot.Categories, 2)
	assert.False(t, snapshot.FetchedAt.IsZero())
	assert.Equal(t, int32(2), src.maxInFlight.Load())
}

func TestLoader_EitherFailureFailsLoad(t *testing.T) {
	boom := errors.New("upstream down")

	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"products", &fakeSource{productsErr: boom}},
		{"categories", &fakeSource{products: sampleProducts(), categoriesErr: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &memCache{}
			loader := NewLoader(tt.src, cache, quietLogger())

			snapshot, err := loader.Load(context.Background())
			assert.ErrorIs(t, err, boom)
			assert.Nil(t, snapshot)
			assert.Nil(t, cache.snapshot, "failed load must not be cached")
		})
	}
}

func TestLoader_DropsInvalidProducts(t *testing.T) {
	products := append(sampleProducts(),
		domain.Product{ID: "bad-price", Name: "Broken", Price: -1},
		domain.Product{ID: "bad-discount", Name: "Broken", Price: 1, Discount: 150},
	)
	loader := NewLoader(&fakeSource{products: products}, nil, quietLogger())

	snapshot, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Products, 6)
	_, ok := snapshot.Product("bad-price")
	assert.False(t, ok)
}

func TestLoader_UsesCache(t *testing.T) {
	src := &fakeSource{products: sampleProducts()}
	cache := &memCache{}
	loader := NewLoader(src, cache, quietLogger())

	_, err := loader.Load(context.Background())
	require.NoError(t, err)
	_, err = loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.productCalls.Load())

	loader.Invalidate(context.Background())
	_, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.productCalls.Load())
}

func TestLoader_CacheErrorFallsBackToSource(t *testing.T) {
	src := &fakeSource{products: sampleProducts()}
	loader := NewLoader(src, &memCache{getErr: errors.New("redis down")}, quietLogger())

	snapshot, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Products, 6)
}

func TestLoader_ConcurrentLoadsShareOneFetch(t *testing.T) {
	src := &fakeSource{products: sampleProducts(), delay: 50 * time.Millisecond}
	loader := NewLoader(src, nil, quietLogger())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loader.Load(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, src.productCalls.Load(), int32(10))
}

func TestLoader_Product(t *testing.T) {
	loader := NewLoader(&fakeSource{products: sampleProducts()}, nil, quietLogger())

	p, err := loader.Product(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Apple Fuji", p.Name)

	_, err = loader.Product(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestLoader_SharedFetchOutlivesCancelledCaller(t *testing.T) {
	src := &fakeSource{products: sampleProducts(), delay: 100 * time.Millisecond}
	loader := NewLoader(src, nil, quietLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := loader.Load(firstCtx)
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan error, 1)
	var snapshot *Snapshot
	go func() {
		var err error
		snapshot, err = loader.Load(context.Background())
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	require.NoError(t, <-second)
	assert.Len(t, snapshot.Products, len(sampleProducts()))
	assert.Equal(t, int32(1), src.productCalls.Load())
}

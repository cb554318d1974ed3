package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

// Source is the upstream the catalog is bootstrapped from.
type Source interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	GetCategories(ctx context.Context) ([]domain.Category, error)
}

type Snapshot struct {
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// Product looks up a product by id.
func (s *Snapshot) Product(id string) (domain.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

type Loader struct {
	source Source
	cache  Cache
	sfg    singleflight.Group // Prevents cache stampede
	logger *slog.Logger
	// timeout bounds a shared load, which outlives the caller that started it.
	timeout time.Duration
}

const defaultLoadTimeout = 30 * time.Second

func NewLoader(source Source, cache Cache, logger *slog.Logger) *Loader {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source:  source,
		cache:   cache,
		logger:  logger,
		timeout: defaultLoadTimeout,
	}
}

// Load returns the catalog snapshot, from cache when possible. Products and
// categories are fetched concurrently and both must succeed. Concurrent loads
// share one fetch, which is not cancelled when any single caller gives up.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	ch := l.sfg.DoChan("catalog", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		snapshot, err := l.cache.Get(loadCtx)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			l.logger.Warn("catalog cache get failed", "error", err)
		}

		snapshot, err = l.fetch(loadCtx)
		if err != nil {
			return nil, err
		}

		if errSet := l.cache.Set(loadCtx, snapshot); errSet != nil {
			l.logger.Warn("catalog cache set failed", "error", errSet)
		}
		return snapshot, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) fetch(ctx context.Context) (*Snapshot, error) {
	var (
		products   []domain.Product
		categories []domain.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = l.source.GetProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = l.source.GetCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap catalog: %w", err)
	}

	valid := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			l.logger.Warn("dropping invalid product", "product_id", p.ID, "error", err)
			continue
		}
		valid = append(valid, p)
	}

	return &Snapshot{
		Products:   valid,
		Categories: categories,
		FetchedAt:  time.Now(),
	}, nil
}

func (l *Loader) Product(ctx context.Context, id string) (domain.Product, error) {
	snapshot, err := l.Load(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	p, ok := snapshot.Product(id)
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Invalidate drops the cached snapshot so the next Load refetches.
func (l *Loader) Invalidate(ctx context.Context) {
	if err := l.cache.Delete(ctx); err != nil {
		l.logger.Warn("catalog cache invalidate failed", "error", err)
	}
}

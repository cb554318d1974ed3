// Package checkout prices the cart, submits the order upstream and keeps the
// local order history.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// OrderCreator submits an order to the upstream shop.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order *domain.OrderPayload, idempotencyKey string) (*domain.CreatedOrder, error)
}

type Methods struct {
	Shipping []domain.ShippingMethod `yaml:"shipping"`
	Payment  []domain.PaymentMethod  `yaml:"payment"`
}

func DefaultMethods() Methods {
	return Methods{
		Shipping: domain.DefaultShippingMethods(),
		Payment:  domain.DefaultPaymentMethods(),
	}
}

type Request struct {
	Recipient      domain.Recipient `json:"recipient"`
	ShippingMethod string           `json:"shipping_method"`
	PaymentMethod  string           `json:"payment_method"`
}

type Result struct {
	Order domain.PlacedOrder `json:"order"`
	Quote pricing.Quote      `json:"quote"`
}

type Service struct {
	carts   cart.Store
	creator OrderCreator
	orders  OrderRepository
	methods Methods
	sfg     singleflight.Group // one in-flight submission per cart
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]Request // guarded by mu
	// timeout bounds a submission once it no longer follows its caller's context.
	timeout time.Duration
}

const defaultSubmitTimeout = 30 * time.Second

func NewService(carts cart.Store, creator OrderCreator, orders OrderRepository, methods Methods, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		carts:    carts,
		creator:  creator,
		orders:   orders,
		methods:  methods,
		logger:   logger,
		inflight: make(map[string]Request),
		timeout:  defaultSubmitTimeout,
	}
}

func (s *Service) Methods() Methods {
	return Methods{
		Shipping: append([]domain.ShippingMethod(nil), s.methods.Shipping...),
		Payment:  append([]domain.PaymentMethod(nil), s.methods.Payment...),
	}
}

// Quote prices the cart for the given shipping method. Unknown methods cost nothing.
func (s *Service) Quote(ctx context.Context, cartID, shippingID string) ([]domain.CartItem, pricing.Quote, error) {
	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return nil, pricing.Quote{}, fmt.Errorf("read cart: %w", err)
	}
	return items, pricing.Compute(items, shippingID, s.methods.Shipping), nil
}

// Submit places the cart's order. Concurrent calls for the same cart with the
// same request share one submission and its result; a differing request while
// one is in flight fails with ErrSubmissionInProgress. The submission keeps
// running if its caller goes away, bounded by the service timeout.
func (s *Service) Submit(ctx context.Context, cartID string, req Request) (*Result, error) {
	s.mu.Lock()
	if cur, ok := s.inflight[cartID]; ok && cur != req {
		s.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	s.inflight[cartID] = req
	s.mu.Unlock()

	ch := s.sfg.DoChan(cartID, func() (interface{}, error) {
		defer s.release(cartID, req)
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		res, err := s.submit(runCtx, cartID, req)
		return &submission{req: req, res: res, err: err}, nil
	})

	select {
	case r := <-ch:
		sub := r.Val.(*submission)
		if sub.req != req {
			// joined a flight that started for a different request
			s.release(cartID, req)
			return nil, ErrSubmissionInProgress
		}
		if r.Shared {
			s.logger.Info("joined in-flight submission", "cart_id", cartID)
		}
		return sub.res, sub.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type submission struct {
	req Request
	res *Result
	err error
}

func (s *Service) release(cartID string, req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.inflight[cartID]; ok && cur == req {
		delete(s.inflight, cartID)
	}
}

func (s *Service) submit(ctx context.Context, cartID string, req Request) (*Result, error) {
	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if _, ok := domain.FindShipping(s.methods.Shipping, req.ShippingMethod); !ok {
		return nil, fmt.Errorf("%w: shipping %q", ErrUnknownMethod, req.ShippingMethod)
	}
	if _, ok := domain.FindPayment(s.methods.Payment, req.PaymentMethod); !ok {
		return nil, fmt.Errorf("%w: payment %q", ErrUnknownMethod, req.PaymentMethod)
	}

	quote := pricing.Compute(items, req.ShippingMethod, s.methods.Shipping)
	payload, err := BuildOrder(items, req.Recipient, req.PaymentMethod, quote)
	if err != nil {
		return nil, err
	}

	key := uuid.NewString()
	created, err := s.creator.CreateOrder(ctx, payload, key)
	if err != nil {
		s.logger.Error("create order failed", "cart_id", cartID, "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	// the order exists upstream from here on; local failures are logged only
	if err := s.settleCart(ctx, cartID, items); err != nil {
		s.logger.Error("clear cart after order failed", "cart_id", cartID, "error", err)
	}

	placed := s.record(ctx, cartID, key, payload, created)
	s.logger.Info("order placed", "cart_id", cartID, "order_id", placed.ID, "remote_id", placed.RemoteID)

	return &Result{Order: placed, Quote: quote}, nil
}

// settleCart takes the ordered quantities out of the cart. Items added while
// the order was in flight stay.
func (s *Service) settleCart(ctx context.Context, cartID string, ordered []domain.CartItem) error {
	current, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return err
	}

	remaining := make(map[string]int, len(current))
	for _, it := range current {
		remaining[it.ProductID] = it.Quantity
	}
	for _, it := range ordered {
		if q, ok := remaining[it.ProductID]; ok {
			remaining[it.ProductID] = q - it.Quantity
		}
	}

	leftover := false
	for _, q := range remaining {
		if q > 0 {
			leftover = true
			break
		}
	}
	if !leftover {
		return s.carts.Clear(ctx, cartID)
	}

	var errs []error
	for id, q := range remaining {
		switch {
		case q <= 0:
			err = s.carts.Remove(ctx, cartID, id)
		case q < quantityOf(current, id):
			err = s.carts.UpdateQuantity(ctx, cartID, id, q)
		default:
			continue
		}
		if err != nil && !errors.Is(err, cart.ErrItemNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func quantityOf(items []domain.CartItem, productID string) int {
	for _, it := range items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (s *Service) record(ctx context.Context, cartID, key string, payload *domain.OrderPayload, created *domain.CreatedOrder) domain.PlacedOrder {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal order payload failed", "error", err)
	}

	placed := domain.PlacedOrder{
		ID:             uuid.NewString(),
		CartID:         cartID,
		IdempotencyKey: key,
		TotalAmount:    payload.Totals().TotalAmount,
		Payload:        body,
		CreatedAt:      time.Now().UTC(),
	}
	if created != nil {
		placed.RemoteID = created.ID
	}

	event, err := orderPlacedEvent(placed, payload)
	if err != nil {
		s.logger.Error("marshal order event failed", "order_id", placed.ID, "error", err)
		event = nil
	}

	if s.orders != nil {
		if err := s.orders.RecordOrder(ctx, &placed, event); err != nil {
			s.logger.Error("record order failed", "order_id", placed.ID, "error", err)
		}
	}
	return placed
}

func orderPlacedEvent(order domain.PlacedOrder, payload *domain.OrderPayload) (*OutboxEvent, error) {
	body, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"remote_id":    order.RemoteID,
		"cart_id":      order.CartID,
		"items":        payload.Items(),
		"payment":      payload.PaymentInfo().Method,
		"total_amount": order.TotalAmount,
		"placed_at":    order.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		AggregateID: order.ID,
		EventType:   EventOrderPlaced,
		Payload:     body,
		CreatedAt:   order.CreatedAt,
	}, nil
}

// Orders lists the locally recorded orders of a cart, newest first.
func (s *Service) Orders(ctx context.Context, cartID string) ([]domain.PlacedOrder, error) {
	if s.orders == nil {
		return []domain.PlacedOrder{}, nil
	}
	return s.orders.Orders(ctx, cartID)
}

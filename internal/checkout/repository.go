package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

const EventOrderPlaced = "OrderPlaced"

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// OrderRepository records successfully submitted orders.
type OrderRepository interface {
	// RecordOrder stores the order and its outbox event atomically.
	RecordOrder(ctx context.Context, order *domain.PlacedOrder, event *OutboxEvent) error
	Orders(ctx context.Context, cartID string) ([]domain.PlacedOrder, error)
}

type OutboxRepository interface {
	UnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *storage.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db.SQL()}
}

func (r *SQLiteRepository) RecordOrder(ctx context.Context, order *domain.PlacedOrder, event *OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, cart_id, remote_id, idempotency_key, total_amount, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		order.ID,
		order.CartID,
		order.RemoteID,
		order.IdempotencyKey,
		order.TotalAmount,
		string(order.Payload),
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if event != nil {
		res, errOutbox := tx.ExecContext(ctx, `
			INSERT INTO order_outbox (aggregate_id, event_type, payload, created_at)
			VALUES (?, ?, ?, ?)
		`,
			event.AggregateID,
			event.EventType,
			string(event.Payload),
			event.CreatedAt,
		)
		if errOutbox != nil {
			return fmt.Errorf("failed to insert outbox event: %w", errOutbox)
		}
		if id, errID := res.LastInsertId(); errID == nil {
			event.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// Orders returns the cart's orders, newest first.
func (r *SQLiteRepository) Orders(ctx context.Context, cartID string) ([]domain.PlacedOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cart_id, remote_id, idempotency_key, total_amount, payload, created_at
		FROM orders
		WHERE cart_id = ?
		ORDER BY rowid DESC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.PlacedOrder, 0)
	for rows.Next() {
		var (
			o       domain.PlacedOrder
			payload []byte
		)
		if err := rows.Scan(&o.ID, &o.CartID, &o.RemoteID, &o.IdempotencyKey, &o.TotalAmount, &payload, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Payload = json.RawMessage(payload)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *SQLiteRepository) UnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM order_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var (
			e       OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_outbox SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %d: %w", id, err)
	}
	return nil
}

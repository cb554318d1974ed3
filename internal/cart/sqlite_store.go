package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

// SQLiteStore persists carts in the local storage database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *storage.DB) *SQLiteStore {
	return &SQLiteStore{db: db.SQL()}
}

func (s *SQLiteStore) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	query := `
		SELECT product_id, name, price, discount, quantity, image, added_at
		FROM cart_items
		WHERE cart_id = ?
		ORDER BY added_at, product_id
	`

	rows, err := s.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Discount,
			&item.Quantity,
			&item.Image,
			&item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (s *SQLiteStore) Add(ctx context.Context, cartID string, item domain.CartItem) error {
	if !domain.ValidQuantity(item.Quantity) {
		return ErrInvalidQuantity
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add item: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, item.ProductID,
	).Scan(&existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (cart_id, product_id, name, price, discount, quantity, image, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			cartID, item.ProductID, item.Name, item.Price, item.Discount, item.Quantity, item.Image, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	case err != nil:
		return fmt.Errorf("check existing item: %w", err)
	default:
		q, errQ := mergedQuantity(existing, item.Quantity)
		if errQ != nil {
			return errQ
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = ? WHERE cart_id = ? AND product_id = ?`,
			q, cartID, item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("update existing item: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	if !domain.ValidQuantity(quantity) {
		return ErrInvalidQuantity
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE cart_id = ? AND product_id = ?`,
		quantity, cartID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) Remove(ctx context.Context, cartID, productID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) Clear(ctx context.Context, cartID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

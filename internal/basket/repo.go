// Package basket owns shopping baskets and the stock reservations behind their lines.
// Every change to products.stock made on behalf of a basket goes through reserve.
package basket

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/storefront/internal/money"
)

var (
	ErrNoBasket        = errors.New("no active basket")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("basket item not found")
	ErrOutOfStock      = errors.New("product out of stock")
	ErrItemHeld        = errors.New("basket item held by a pending order")
)

type Repository interface {
	Add(ctx context.Context, userID, productID string) (*Item, error)
	Remove(ctx context.Context, userID, itemID string) error
	SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Item, error)
	View(ctx context.Context, userID string) (*View, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// reserve moves delta units from stock into baskets; a negative delta releases them.
// The conditional update takes the row lock, so concurrent reservations serialize
// and none can drive stock below zero.
func reserve(ctx context.Context, tx pgx.Tx, productID string, delta int) error {
	if delta == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock - $2 >= 0
	`, productID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutOfStock
	}
	return nil
}

func activeBasketID(ctx context.Context, q pgx.Tx, userID string) (string, error) {
	var id string
	err := q.QueryRow(ctx, `SELECT id FROM baskets WHERE user_id=$1 AND is_active`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoBasket
	}
	return id, err
}

const itemCols = `bi.id, bi.basket_id, bi.product_id, p.name, bi.quantity, bi.is_active, bi.is_order_placed, p.price::text, bi.created_at, bi.updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var (
		it    Item
		price string
	)
	if err := row.Scan(&it.ID, &it.BasketID, &it.ProductID, &it.ProductName, &it.Quantity, &it.IsActive, &it.IsOrderPlaced, &price, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := money.Parse(price)
	if err != nil {
		return nil, err
	}
	it.UnitPrice = d
	it.LineTotal = it.Total()
	return &it, nil
}

// lockOwnedItem loads an active, unconsumed line that belongs to the user's basket.
func lockOwnedItem(ctx context.Context, tx pgx.Tx, userID, itemID string) (*Item, error) {
	it, err := scanItem(tx.QueryRow(ctx, `
		SELECT `+itemCols+`
		FROM basket_items bi
		JOIN baskets b ON b.id = bi.basket_id
		JOIN products p ON p.id = bi.product_id
		WHERE bi.id = $1 AND b.user_id = $2 AND bi.is_active AND NOT bi.is_order_placed
		FOR UPDATE OF bi
	`, itemID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	return it, err
}

// checkNotHeld fails with ErrItemHeld while a pending order links the line. Callers hold
// the line's row lock, which CreatePending also takes before linking.
func checkNotHeld(ctx context.Context, tx pgx.Tx, itemID string) error {
	var held bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE oi.basket_item_id = $1 AND o.status = 'Pending'
		)
	`, itemID).Scan(&held); err != nil {
		return err
	}
	if held {
		return ErrItemHeld
	}
	return nil
}

func (r *PGRepo) Add(ctx context.Context, userID, productID string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	basketID, err := activeBasketID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}
	if err := reserve(ctx, tx, productID, 1); err != nil {
		return nil, err
	}

	var (
		itemID   string
		qty      int
		isActive bool
	)
	err = tx.QueryRow(ctx, `
		SELECT id, quantity, is_active FROM basket_items
		WHERE basket_id=$1 AND product_id=$2 AND NOT is_order_placed
		FOR UPDATE
	`, basketID, productID).Scan(&itemID, &qty, &isActive)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		itemID = uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO basket_items (id, basket_id, product_id, quantity, is_active, is_order_placed, created_at, updated_at)
			VALUES ($1,$2,$3,1,TRUE,FALSE,NOW(),NOW())
		`, itemID, basketID, productID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case isActive:
		if err := checkNotHeld(ctx, tx, itemID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE basket_items SET quantity = quantity + 1, updated_at = NOW() WHERE id=$1`, itemID); err != nil {
			return nil, err
		}
	default:
		// a removed line comes back with a fresh quantity
		if _, err := tx.Exec(ctx, `UPDATE basket_items SET quantity = 1, is_active = TRUE, updated_at = NOW() WHERE id=$1`, itemID); err != nil {
			return nil, err
		}
	}

	it, err := lockOwnedItem(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return it, tx.Commit(ctx)
}

func (r *PGRepo) Remove(ctx context.Context, userID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	it, err := lockOwnedItem(ctx, tx, userID, itemID)
	if err != nil {
		return err
	}
	if err := checkNotHeld(ctx, tx, it.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE basket_items SET is_active = FALSE, updated_at = NOW() WHERE id=$1`, it.ID); err != nil {
		return err
	}
	if err := reserve(ctx, tx, it.ProductID, -it.Quantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	it, err := lockOwnedItem(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := checkNotHeld(ctx, tx, it.ID); err != nil {
		return nil, err
	}
	if err := reserve(ctx, tx, it.ProductID, qty-it.Quantity); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE basket_items SET quantity = $2, updated_at = NOW() WHERE id=$1`, it.ID, qty); err != nil {
		return nil, err
	}
	it.Quantity = qty
	it.LineTotal = it.Total()
	return it, tx.Commit(ctx)
}

func (r *PGRepo) View(ctx context.Context, userID string) (*View, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	basketID, err := activeBasketID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+itemCols+`
		FROM basket_items bi
		JOIN products p ON p.id = bi.product_id
		WHERE bi.basket_id = $1 AND bi.is_active AND NOT bi.is_order_placed
		ORDER BY bi.created_at
	`, basketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewView(basketID, items), nil
}

package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/storefront/internal/money"
)

var (
	ErrNotFound        = errors.New("wishlist item not found")
	ErrProductNotFound = errors.New("product not found")
)

type Item struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       string    `json:"price"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository interface {
	Add(ctx context.Context, userID, productID string) (item *Item, created bool, err error)
	Remove(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]Item, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const itemQuery = `
	SELECT w.id, w.product_id, p.name, p.price::text, p.stock > 0, w.created_at
	FROM wishlist_items w JOIN products p ON p.id = w.product_id
`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Price, &it.InStock, &it.CreatedAt); err != nil {
		return nil, err
	}
	if d, err := money.Parse(it.Price); err == nil {
		it.Price = d.StringFixed(2)
	}
	return &it, nil
}

// Add is idempotent per (user, product): a second add returns the existing entry.
func (r *PGRepo) Add(ctx context.Context, userID, productID string) (*Item, bool, error) {
	if uuid.Validate(productID) != nil {
		return nil, false, ErrProductNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		INSERT INTO wishlist_items (id, user_id, product_id, created_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, uuid.NewString(), userID, productID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, false, ErrProductNotFound
		}
		return nil, false, err
	}
	it, err := scanItem(r.db.QueryRow(ctx, itemQuery+` WHERE w.user_id=$1 AND w.product_id=$2`, userID, productID))
	if err != nil {
		return nil, false, err
	}
	return it, tag.RowsAffected() == 1, nil
}

func (r *PGRepo) Remove(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM wishlist_items WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) List(ctx context.Context, userID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, itemQuery+` WHERE w.user_id=$1 ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

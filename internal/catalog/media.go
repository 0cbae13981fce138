package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrMediaNotFound = errors.New("product media not found")

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Media points at an image or video of a product hosted outside the API.
type Media struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Type      string    `json:"media_type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AddMediaRequest payload of media creation.
// swagger:model AddMediaRequest
type AddMediaRequest struct {
	Type string `json:"media_type" binding:"required,oneof=image video" example:"image"`
	URL  string `json:"url"        binding:"required,url"               example:"https://cdn.example.com/oud.jpg"`
}

func (r *PGRepo) AddMedia(ctx context.Context, m *Media) error {
	if uuid.Validate(m.ProductID) != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO product_media (id, product_id, media_type, url, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, m.ID, m.ProductID, m.Type, m.URL).Scan(&m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	return err
}

func (r *PGRepo) DeleteMedia(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrMediaNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM product_media WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// ListMedia returns the media of a product, oldest first. An unknown product is ErrNotFound.
func (r *PGRepo) ListMedia(ctx context.Context, productID string) ([]Media, error) {
	if uuid.Validate(productID) != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, media_type, url, created_at
		FROM product_media WHERE product_id=$1
		ORDER BY created_at
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Media{}
	for rows.Next() {
		var m Media
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.URL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

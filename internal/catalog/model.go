package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"category_id,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	CategoryID string    `json:"category_id,omitempty"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
	Items      []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	CategoryID  string `json:"category_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Brand       string `json:"brand"       example:"HHH"`
	Name        string `json:"name"        binding:"required" example:"Oud Royale 100ml"`
	Description string `json:"description" example:"Eau de parfum"`
	Price       string `json:"price"       binding:"required" example:"1499.00"`
	Stock       int    `json:"stock"       binding:"gte=0"    example:"10"`
}

// UpdateProductRequest payload of partial update. Nil fields are left untouched.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Brand       string  `json:"brand"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
	Available   *bool   `json:"available"`
}

// CreateCategoryRequest payload of category creation.
// swagger:model CreateCategoryRequest
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required" example:"Attars"`
	Slug string `json:"slug" example:"attars"`
}

package basket

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID            string          `json:"id"`
	BasketID      string          `json:"basket_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	IsActive      bool            `json:"is_active"`
	IsOrderPlaced bool            `json:"is_order_placed"`
	UnitPrice     decimal.Decimal `json:"unit_price"` // live product price
	LineTotal     decimal.Decimal `json:"line_total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Total is the live price times quantity.
func (it Item) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Eligible reports whether the line still counts towards a checkout.
func (it Item) Eligible() bool { return it.IsActive && !it.IsOrderPlaced }

type View struct {
	BasketID string          `json:"basket_id"`
	Items    []Item          `json:"items"`
	Total    decimal.Decimal `json:"total"`
}

// NewView keeps only eligible lines and sums them.
func NewView(basketID string, items []Item) *View {
	v := &View{BasketID: basketID, Items: []Item{}, Total: decimal.Zero}
	for _, it := range items {
		if !it.Eligible() {
			continue
		}
		it.LineTotal = it.Total()
		v.Total = v.Total.Add(it.LineTotal)
		v.Items = append(v.Items, it)
	}
	return v
}

// SetQuantityRequest payload of a quantity change.
// swagger:model SetQuantityRequest
type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required" example:"2"`
}

// Package notify tells purchasers that their order was paid: an HTML email with a
// PDF invoice, sent directly over SMTP or handed to Kafka for the notifier service.
package notify

import (
	"context"

	"github.com/MikeMC777/storefront/internal/order"
)

// Confirmation is everything needed to render an order-paid message.
type Confirmation struct {
	Order     order.Order  `json:"order"`
	Items     []order.Item `json:"items"`
	PaymentID string       `json:"payment_id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
}

type Notifier interface {
	OrderPaid(ctx context.Context, c Confirmation) error
}

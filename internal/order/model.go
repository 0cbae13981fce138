package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusPaid       Status = "Paid"
	StatusCancelled  Status = "Cancelled"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
)

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "Created"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

const MethodOnline = "online"

// validNext lists the manual transitions. Pending -> Paid is absent on purpose:
// only a verified gateway confirmation may pay an order.
var validNext = map[Status][]Status{
	StatusPending:    {StatusCancelled},
	StatusPaid:       {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusCancelled, StatusProcessing, StatusShipped, StatusDelivered:
		return st, true
	}
	return "", false
}

type Shipping struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	City            string `json:"city"`
	State           string `json:"state"`
	Pincode         string `json:"pincode"`
	ShippingAddress string `json:"shipping_address"`
	BillingAddress  string `json:"billing_address"`
	Notes           string `json:"notes"`
}

type Order struct {
	ID             string          `json:"id"`
	Number         string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
	Shipping       Shipping        `json:"shipping"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Item is a frozen snapshot of a basket line at checkout time.
type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	BasketItemID string          `json:"basket_item_id,omitempty"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

func (it Item) Total() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Payment struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	UserID           string          `json:"user_id"`
	Method           string          `json:"method"`
	Amount           decimal.Decimal `json:"amount"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Status           PaymentStatus   `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LedgerRow is one order joined with its payment, as exported to spreadsheets.
type LedgerRow struct {
	Order   Order
	Payment Payment
	Email   string
}

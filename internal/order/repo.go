package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/storefront/internal/money"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrConflict          = errors.New("order state conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReservationLost   = errors.New("basket lines no longer match the order")
)

type Repository interface {
	CreatePending(ctx context.Context, o *Order, items []Item, p *Payment) (superseded []string, err error)
	MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (o *Order, alreadyPaid bool, err error)
	MarkFailed(ctx context.Context, userID, gatewayOrderID string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	GetPayment(ctx context.Context, orderID string) (*Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, number string, to Status) (*Order, error)
	Ledger(ctx context.Context) ([]LedgerRow, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderCols = `id, order_number, user_id, gateway_order_id, amount::text, currency, status,
	first_name, last_name, phone, city, state, pincode, shipping_address, billing_address, notes,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		amount string
		s      = &o.Shipping
	)
	if err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.GatewayOrderID, &amount, &o.Currency, &o.Status,
		&s.FirstName, &s.LastName, &s.Phone, &s.City, &s.State, &s.Pincode, &s.ShippingAddress, &s.BillingAddress, &s.Notes,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d, err := money.Parse(amount)
	if err != nil {
		return nil, err
	}
	o.Amount = d
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// CreatePending stores the order, its snapshot lines and its payment in one transaction.
// Earlier pending orders of the same user are cancelled first and their numbers returned,
// so a basket line is held by at most one pending order. The linked lines are locked and
// must still match the snapshot, otherwise nothing is written and ErrReservationLost is
// returned.
func (r *PGRepo) CreatePending(ctx context.Context, o *Order, items []Item, p *Payment) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	superseded, err := supersedeTx(ctx, tx, o.UserID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.BasketItemID == "" {
			continue
		}
		var qty int
		err := tx.QueryRow(ctx, `
      SELECT quantity FROM basket_items
      WHERE id = $1 AND is_active AND NOT is_order_placed
      FOR UPDATE
    `, it.BasketItemID).Scan(&qty)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && qty != it.Quantity) {
			return nil, ErrReservationLost
		}
		if err != nil {
			return nil, err
		}
	}

	s := o.Shipping
	if err := tx.QueryRow(ctx, `
    INSERT INTO orders (id, order_number, user_id, gateway_order_id, amount, currency, status,
      first_name, last_name, phone, city, state, pincode, shipping_address, billing_address, notes,
      created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
    RETURNING created_at, updated_at
  `, o.ID, o.Number, o.UserID, o.GatewayOrderID, o.Amount.String(), o.Currency, o.Status,
		s.FirstName, s.LastName, s.Phone, s.City, s.State, s.Pincode, s.ShippingAddress, s.BillingAddress, s.Notes,
	).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, basket_item_id, product_name, quantity, price)
      VALUES ($1,$2,$3,NULLIF($4,'')::uuid,$5,$6,$7::numeric)
    `, it.ID, o.ID, it.ProductID, it.BasketItemID, it.ProductName, it.Quantity, it.Price.String()); err != nil {
			return nil, err
		}
	}

	if err := tx.QueryRow(ctx, `
    INSERT INTO payments (id, order_id, user_id, method, amount, gateway_order_id, status, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,NOW(),NOW())
    RETURNING created_at, updated_at
  `, p.ID, o.ID, p.UserID, p.Method, p.Amount.String(), p.GatewayOrderID, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return superseded, tx.Commit(ctx)
}

// supersedeTx cancels every pending order of the user and returns their numbers.
func supersedeTx(ctx context.Context, tx pgx.Tx, userID string) ([]string, error) {
	rows, err := tx.Query(ctx, `
    SELECT `+orderCols+` FROM orders WHERE user_id=$1 AND status=$2 FOR UPDATE
  `, userID, StatusPending)
	if err != nil {
		return nil, err
	}
	pending, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(pending))
	for i := range pending {
		if err := cancelTx(ctx, tx, &pending[i]); err != nil {
			return nil, err
		}
		numbers = append(numbers, pending[i].Number)
	}
	return numbers, nil
}

// MarkPaid settles the order opened under gatewayOrderID. The payment, the order and the
// basket lines linked to the order change in one transaction. The order row lock makes
// duplicate confirmations queue up; later ones report alreadyPaid and change nothing.
// Every linked line must still be open at its snapshot quantity, otherwise the order stays
// pending and ErrReservationLost is returned.
func (r *PGRepo) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE gateway_order_id=$1 FOR UPDATE`, gatewayOrderID))
	if err != nil {
		return nil, false, err
	}
	switch o.Status {
	case StatusPending:
	case StatusCancelled:
		return o, false, ErrConflict
	default:
		return o, true, nil
	}

	tag, err := tx.Exec(ctx, `
    UPDATE payments
    SET gateway_payment_id = $2, status = $3, updated_at = NOW()
    WHERE order_id = $1 AND status = $4
  `, o.ID, gatewayPaymentID, PaymentPaid, PaymentCreated)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 0 {
		return o, false, ErrConflict
	}
	if err := tx.QueryRow(ctx, `
    UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at
  `, o.ID, StatusPaid).Scan(&o.UpdatedAt); err != nil {
		return nil, false, err
	}
	var linked int64
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(*) FROM order_items WHERE order_id = $1 AND basket_item_id IS NOT NULL
  `, o.ID).Scan(&linked); err != nil {
		return nil, false, err
	}
	tag, err = tx.Exec(ctx, `
    UPDATE basket_items bi
    SET is_order_placed = TRUE, updated_at = NOW()
    FROM order_items oi
    WHERE oi.order_id = $1 AND oi.basket_item_id = bi.id
      AND bi.is_active AND NOT bi.is_order_placed AND bi.quantity = oi.quantity
  `, o.ID)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() != linked {
		return o, false, ErrReservationLost
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	o.Status = StatusPaid
	return o, false, nil
}

// MarkFailed cancels a pending order whose payment the client abandoned.
func (r *PGRepo) MarkFailed(ctx context.Context, userID, gatewayOrderID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
    SELECT `+orderCols+` FROM orders WHERE gateway_order_id=$1 AND user_id=$2 FOR UPDATE
  `, gatewayOrderID, userID))
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCancelled {
		return o, nil
	}
	if o.Status != StatusPending {
		return o, ErrConflict
	}
	if err := cancelTx(ctx, tx, o); err != nil {
		return nil, err
	}
	return o, tx.Commit(ctx)
}

// cancelTx cancels a locked pending order and fails its payment.
func cancelTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	if _, err := tx.Exec(ctx, `
    UPDATE payments SET status = $2, updated_at = NOW() WHERE order_id = $1 AND status = $3
  `, o.ID, PaymentFailed, PaymentCreated); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
    UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at
  `, o.ID, StatusCancelled).Scan(&o.UpdatedAt); err != nil {
		return err
	}
	o.Status = StatusCancelled
	return nil
}

func (r *PGRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE order_number=$1`, number))
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, COALESCE(basket_item_id::text, ''), product_name, quantity, price::text
    FROM order_items
    WHERE order_id = $1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.BasketItemID, &it.ProductName, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = money.Parse(price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) GetPayment(ctx context.Context, orderID string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		p      Payment
		amount string
	)
	err := r.db.QueryRow(ctx, `
    SELECT id, order_id, user_id, method, amount::text, gateway_order_id, gateway_payment_id, status, created_at, updated_at
    FROM payments WHERE order_id=$1
  `, orderID).Scan(&p.ID, &p.OrderID, &p.UserID, &p.Method, &amount, &p.GatewayOrderID, &p.GatewayPaymentID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Amount, err = money.Parse(amount); err != nil {
		return nil, err
	}
	return &p, nil
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit, offset = pageBounds(limit, offset)
	rows, err := r.db.Query(ctx, `
    SELECT `+orderCols+`
    FROM orders WHERE user_id=$1
    ORDER BY created_at DESC LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit, offset = pageBounds(limit, offset)
	rows, err := r.db.Query(ctx, `
    SELECT `+orderCols+`
    FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// UpdateStatus applies a manual fulfilment transition. Cancelling fails the payment too.
func (r *PGRepo) UpdateStatus(ctx context.Context, number string, to Status) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE order_number=$1 FOR UPDATE`, number))
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return o, ErrInvalidTransition
	}
	if to == StatusCancelled {
		if err := cancelTx(ctx, tx, o); err != nil {
			return nil, err
		}
	} else {
		if err := tx.QueryRow(ctx, `
      UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at
    `, o.ID, to).Scan(&o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = to
	}
	return o, tx.Commit(ctx)
}

func (r *PGRepo) Ledger(ctx context.Context) ([]LedgerRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT o.order_number, o.user_id, u.email, o.gateway_order_id, o.amount::text, o.currency, o.status,
           o.first_name, o.last_name, o.phone, o.city, o.state, o.pincode, o.shipping_address,
           o.created_at, p.gateway_payment_id, p.method, p.status, p.updated_at
    FROM orders o
    JOIN payments p ON p.order_id = o.id
    JOIN users u ON u.id = o.user_id
    ORDER BY o.created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerRow
	for rows.Next() {
		var (
			lr     LedgerRow
			amount string
			s      = &lr.Order.Shipping
		)
		if err := rows.Scan(&lr.Order.Number, &lr.Order.UserID, &lr.Email, &lr.Order.GatewayOrderID, &amount, &lr.Order.Currency, &lr.Order.Status,
			&s.FirstName, &s.LastName, &s.Phone, &s.City, &s.State, &s.Pincode, &s.ShippingAddress,
			&lr.Order.CreatedAt, &lr.Payment.GatewayPaymentID, &lr.Payment.Method, &lr.Payment.Status, &lr.Payment.UpdatedAt); err != nil {
			return nil, err
		}
		if lr.Order.Amount, err = money.Parse(amount); err != nil {
			return nil, err
		}
		lr.Payment.Amount = lr.Order.Amount
		out = append(out, lr)
	}
	return out, rows.Err()
}

// Package checkout turns a basket into a pending order backed by a gateway transaction,
// and settles that order when the gateway reports a signed payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/basket"
	"github.com/MikeMC777/storefront/internal/gateway"
	"github.com/MikeMC777/storefront/internal/logging"
	"github.com/MikeMC777/storefront/internal/metrics"
	"github.com/MikeMC777/storefront/internal/money"
	"github.com/MikeMC777/storefront/internal/notify"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/user"
)

const service = "checkout"

type Baskets interface {
	View(ctx context.Context, userID string) (*basket.View, error)
}

type Users interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Deps struct {
	Baskets       Baskets
	Ledger        order.Repository
	Gateway       gateway.Gateway
	Notifier      notify.Notifier
	Users         Users
	Metrics       *metrics.ServerMetrics
	Currency      string
	NotifyTimeout time.Duration
}

type Orchestrator struct {
	baskets       Baskets
	ledger        order.Repository
	gw            gateway.Gateway
	notifier      notify.Notifier
	users         Users
	metrics       *metrics.ServerMetrics
	currency      string
	notifyTimeout time.Duration
	newNumber     func() string
}

func New(d Deps) *Orchestrator {
	if d.Currency == "" {
		d.Currency = "INR"
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = 20 * time.Second
	}
	return &Orchestrator{
		baskets:       d.Baskets,
		ledger:        d.Ledger,
		gw:            d.Gateway,
		notifier:      d.Notifier,
		users:         d.Users,
		metrics:       d.Metrics,
		currency:      d.Currency,
		notifyTimeout: d.NotifyTimeout,
		newNumber:     order.NewNumber,
	}
}

type InitiateResult struct {
	OrderID      string               `json:"order_id"`
	BasketItems  []basket.Item        `json:"basket_items"`
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	GatewayOrder *gateway.Transaction `json:"gateway_order"`
	GatewayKeyID string               `json:"gateway_key_id"`
	Order        *order.Order         `json:"-"`

	// Superseded holds the numbers of earlier pending orders this checkout cancelled.
	Superseded []string `json:"-"`
}

type ConfirmInput struct {
	GatewayOrderID   string `json:"gateway_order_id"   binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature"          binding:"required"`
}

type ConfirmResult struct {
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	AlreadyPaid bool   `json:"already_paid,omitempty"`
}

func (o *Orchestrator) step(start time.Time, f logging.Fields, outcome string) {
	f.Service = service
	f.Status = outcome
	f.DurationMS = time.Since(start).Milliseconds()
	logging.Log(f)
	o.metrics.CheckoutStep(f.Step, outcome)
}

// Initiate snapshots the eligible basket lines into a pending order. The gateway is called
// before anything is written, so a gateway failure leaves no order or payment behind.
// Stock is not touched here: it was reserved when the lines were added.
func (o *Orchestrator) Initiate(ctx context.Context, userID string, ship order.Shipping) (*InitiateResult, error) {
	start := time.Now()
	f := logging.Fields{Step: "initiate", UserID: userID}

	view, err := o.baskets.View(ctx, userID)
	if errors.Is(err, basket.ErrNoBasket) || apperr.HasCode(err, apperr.CodeNoActiveBasket) {
		o.step(start, f, "no_basket")
		return nil, apperr.New(apperr.KindNotFound, apperr.CodeNoActiveBasket, "no active basket")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(view.Items) == 0 {
		o.step(start, f, "empty_basket")
		return nil, apperr.New(apperr.KindValidation, apperr.CodeEmptyBasket, "basket is empty")
	}

	total := decimal.Zero
	for _, it := range view.Items {
		total = total.Add(it.Total())
	}

	number := o.newNumber()
	f.OrderID = number
	txn, err := o.gw.OpenTransaction(ctx, money.Minor(total), o.currency, number)
	if err != nil {
		f.Message = err.Error()
		if errors.Is(err, gateway.ErrTimeout) {
			o.step(start, f, "gateway_timeout")
			return nil, apperr.Wrap(apperr.KindTimeout, apperr.CodeGatewayTimeout, "payment gateway timed out", err)
		}
		o.step(start, f, "gateway_unavailable")
		return nil, apperr.Wrap(apperr.KindExternal, apperr.CodeGatewayUnavailable, "payment gateway unavailable", err)
	}
	if !money.FromMinor(txn.Amount).Equal(total) || txn.Currency != o.currency {
		f.Message = fmt.Sprintf("gateway opened %d %s for %s", txn.Amount, txn.Currency, total)
		o.step(start, f, "gateway_mismatch")
		return nil, apperr.New(apperr.KindExternal, apperr.CodeGatewayUnavailable, "payment gateway returned a different amount")
	}

	ord := &order.Order{
		ID:             uuid.NewString(),
		Number:         number,
		UserID:         userID,
		GatewayOrderID: txn.ID,
		Amount:         total,
		Currency:       o.currency,
		Status:         order.StatusPending,
		Shipping:       ship,
	}
	items := make([]order.Item, 0, len(view.Items))
	for _, it := range view.Items {
		items = append(items, order.Item{
			ID:           uuid.NewString(),
			OrderID:      ord.ID,
			ProductID:    it.ProductID,
			BasketItemID: it.ID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			Price:        it.UnitPrice,
		})
	}
	pay := &order.Payment{
		ID:             uuid.NewString(),
		OrderID:        ord.ID,
		UserID:         userID,
		Method:         order.MethodOnline,
		Amount:         total,
		GatewayOrderID: txn.ID,
		Status:         order.PaymentCreated,
	}
	superseded, err := o.ledger.CreatePending(ctx, ord, items, pay)
	if errors.Is(err, order.ErrReservationLost) {
		o.step(start, f, "basket_changed")
		return nil, apperr.Wrap(apperr.KindConflict, apperr.CodeBasketChanged, "basket changed during checkout, try again", err)
	}
	if err != nil {
		f.Message = err.Error()
		o.step(start, f, "persist_failed")
		return nil, apperr.Internal(err)
	}
	if len(superseded) > 0 {
		log.Printf("[checkout] order=%s superseded pending orders %v", number, superseded)
	}

	o.step(start, f, "ok")
	return &InitiateResult{
		OrderID:      ord.Number,
		BasketItems:  view.Items,
		TotalAmount:  total,
		GatewayOrder: txn,
		GatewayKeyID: o.gw.KeyID(),
		Order:        ord,
		Superseded:   superseded,
	}, nil
}

// Confirm settles the order behind a signed gateway callback. Replays of an already
// settled order succeed without changing anything or mailing again.
func (o *Orchestrator) Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	start := time.Now()
	f := logging.Fields{Step: "confirm"}

	if !o.gw.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		o.step(start, f, "signature_invalid")
		return nil, apperr.New(apperr.KindValidation, apperr.CodeSignatureInvalid, "payment signature verification failed")
	}

	ord, alreadyPaid, err := o.ledger.MarkPaid(ctx, in.GatewayOrderID, in.GatewayPaymentID)
	switch {
	case errors.Is(err, order.ErrNotFound):
		o.step(start, f, "order_not_found")
		return nil, apperr.Wrap(apperr.KindNotFound, apperr.CodeOrderNotFound, "order not found", err)
	case errors.Is(err, order.ErrConflict):
		if ord != nil {
			f.OrderID = ord.Number
		}
		o.step(start, f, "conflict")
		return nil, apperr.Wrap(apperr.KindConflict, apperr.CodeOrderConflict, "order can no longer be paid", err)
	case errors.Is(err, order.ErrReservationLost):
		if ord != nil {
			f.OrderID = ord.Number
		}
		log.Printf("[checkout] gateway_order=%s payment=%s captured but reservation lost", in.GatewayOrderID, in.GatewayPaymentID)
		o.step(start, f, "reservation_lost")
		return nil, apperr.Wrap(apperr.KindConflict, apperr.CodeReservationLost, "reserved items are no longer available for this order", err)
	case err != nil:
		f.Message = err.Error()
		o.step(start, f, "error")
		return nil, apperr.Internal(err)
	}
	f.OrderID, f.UserID = ord.Number, ord.UserID

	if alreadyPaid {
		pay, err := o.ledger.GetPayment(ctx, ord.ID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if pay.GatewayPaymentID != in.GatewayPaymentID {
			log.Printf("[checkout] order=%s paid by %s, second payment %s reported", ord.Number, pay.GatewayPaymentID, in.GatewayPaymentID)
			o.step(start, f, "duplicate_payment")
			return nil, apperr.New(apperr.KindConflict, apperr.CodeOrderConflict, "order was already paid by a different payment")
		}
		o.step(start, f, "already_paid")
		return &ConfirmResult{OrderID: ord.Number, PaymentID: pay.GatewayPaymentID, AlreadyPaid: true}, nil
	}
	o.step(start, f, "ok")
	o.sendConfirmation(ctx, ord, in.GatewayPaymentID)
	return &ConfirmResult{OrderID: ord.Number, PaymentID: in.GatewayPaymentID}, nil
}

// sendConfirmation is best effort: the payment is already committed, so failures are logged only.
func (o *Orchestrator) sendConfirmation(ctx context.Context, ord *order.Order, paymentID string) {
	if o.notifier == nil {
		return
	}
	start := time.Now()
	f := logging.Fields{Step: "notify", OrderID: ord.Number, UserID: ord.UserID}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.notifyTimeout)
	defer cancel()

	c := notify.Confirmation{Order: *ord, PaymentID: paymentID}
	items, err := o.ledger.GetItems(ctx, ord.ID)
	if err == nil {
		c.Items = items
		var u *user.User
		if u, err = o.users.GetByID(ctx, ord.UserID); err == nil {
			c.Email, c.Name = u.Email, u.DisplayName()
			err = o.notifier.OrderPaid(ctx, c)
		}
	}
	if err != nil {
		log.Printf("[checkout] order=%s confirmation not delivered: %v", ord.Number, err)
		f.Message = err.Error()
		o.step(start, f, "failed")
		return
	}
	o.step(start, f, "ok")
}

// Fail cancels a pending order after the client reports an abandoned or declined payment.
func (o *Orchestrator) Fail(ctx context.Context, userID, gatewayOrderID string) (*order.Order, error) {
	start := time.Now()
	f := logging.Fields{Step: "fail", UserID: userID}

	ord, err := o.ledger.MarkFailed(ctx, userID, gatewayOrderID)
	switch {
	case errors.Is(err, order.ErrNotFound):
		o.step(start, f, "order_not_found")
		return nil, apperr.Wrap(apperr.KindNotFound, apperr.CodeOrderNotFound, "order not found", err)
	case errors.Is(err, order.ErrConflict):
		o.step(start, f, "conflict")
		return nil, apperr.Wrap(apperr.KindConflict, apperr.CodeOrderConflict, "order is no longer pending", err)
	case err != nil:
		return nil, apperr.Internal(err)
	}
	f.OrderID = ord.Number
	o.step(start, f, "ok")
	return ord, nil
}

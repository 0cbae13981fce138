package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/notify"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/user"
)

var errOrderNotFound = apperr.New(apperr.KindNotFound, apperr.CodeOrderNotFound, "order not found")

// ownedOrder loads an order visible to the caller. Orders of other users are
// reported as missing; admins see everything.
func ownedOrder(c *gin.Context, repo order.Repository) (*order.Order, bool) {
	o, err := repo.GetByNumber(c.Request.Context(), c.Param("number"))
	if errors.Is(err, order.ErrNotFound) {
		httpx.Fail(c, errOrderNotFound)
		return nil, false
	}
	if err != nil {
		httpx.Fail(c, err)
		return nil, false
	}
	if o.UserID != auth.UserID(c) && !auth.IsAdmin(c) {
		httpx.Fail(c, errOrderNotFound)
		return nil, false
	}
	return o, true
}

func myOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := page(c)
		out, err := repo.ListByUser(c.Request.Context(), auth.UserID(c), limit, offset)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out, "limit": limit, "offset": offset})
	}
}

func orderDetailHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, ok := ownedOrder(c, repo)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		items, err := repo.GetItems(ctx, o.ID)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		d := order.Detail{Order: o, Items: items}
		p, err := repo.GetPayment(ctx, o.ID)
		switch {
		case err == nil:
			d.Payment = p
		case !errors.Is(err, order.ErrNotFound):
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// orderStatusHandler answers status polls from the cache, falling back to the ledger.
func orderStatusHandler(repo order.Repository, cache statusCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		number := c.Param("number")
		if uid, st, ok := cache.Get(c.Request.Context(), number); ok {
			if uid != auth.UserID(c) && !auth.IsAdmin(c) {
				httpx.Fail(c, errOrderNotFound)
				return
			}
			c.JSON(http.StatusOK, gin.H{"order_id": number, "status": st, "cached": true})
			return
		}
		ver, verErr := cache.Version(c.Request.Context(), number)
		o, ok := ownedOrder(c, repo)
		if !ok {
			return
		}
		if verErr == nil {
			verErr = cache.Set(c.Request.Context(), o.Number, ver, o.UserID, string(o.Status))
		}
		if verErr != nil {
			log.Printf("[http] rid=%s order=%s status cache set: %v", httpx.RID(c), o.Number, verErr)
		}
		c.JSON(http.StatusOK, gin.H{"order_id": o.Number, "status": o.Status, "cached": false})
	}
}

// invoiceHandler renders the PDF invoice of a settled order.
func invoiceHandler(repo order.Repository, users *user.Service, shop string) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, ok := ownedOrder(c, repo)
		if !ok {
			return
		}
		if o.Status == order.StatusPending || o.Status == order.StatusCancelled {
			httpx.Fail(c, apperr.New(apperr.KindConflict, apperr.CodeOrderConflict, "order has not been paid"))
			return
		}
		ctx := c.Request.Context()
		items, err := repo.GetItems(ctx, o.ID)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		conf := notify.Confirmation{Order: *o, Items: items}
		if p, err := repo.GetPayment(ctx, o.ID); err == nil {
			conf.PaymentID = p.GatewayPaymentID
		}
		if u, err := users.Get(ctx, o.UserID); err == nil {
			conf.Email, conf.Name = u.Email, u.DisplayName()
		}
		pdf, err := notify.Invoice(shop, conf)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="invoice-`+o.Number+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

func updateOrderStatusHandler(repo order.Repository, cache statusCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		to, ok := order.ParseStatus(in.Status)
		if !ok {
			httpx.Fail(c, apperr.Validation("unknown status "+in.Status))
			return
		}
		o, err := repo.UpdateStatus(c.Request.Context(), c.Param("number"), to)
		switch {
		case errors.Is(err, order.ErrNotFound):
			httpx.Fail(c, errOrderNotFound)
			return
		case errors.Is(err, order.ErrInvalidTransition):
			httpx.Fail(c, apperr.Wrap(apperr.KindConflict, apperr.CodeInvalidTransition, "status change not allowed", err))
			return
		case err != nil:
			httpx.Fail(c, err)
			return
		}
		invalidate(c, cache, o.Number)
		c.JSON(http.StatusOK, o)
	}
}

func allOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := page(c)
		out, err := repo.ListAll(c.Request.Context(), limit, offset)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out, "limit": limit, "offset": offset})
	}
}

func exportOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := repo.Ledger(c.Request.Context())
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		name := "orders-" + time.Now().UTC().Format("20060102") + ".xlsx"
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Status(http.StatusOK)
		if err := order.WriteLedger(c.Writer, rows); err != nil {
			log.Printf("[http] rid=%s export failed: %v", httpx.RID(c), err)
		}
	}
}

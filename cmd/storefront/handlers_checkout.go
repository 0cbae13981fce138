package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
)

// checkoutRequest carries the shipping details captured on the checkout form.
// swagger:model CheckoutRequest
type checkoutRequest struct {
	FirstName       string `json:"first_name"       binding:"required" example:"Asha"`
	LastName        string `json:"last_name"        example:"Rao"`
	Phone           string `json:"phone"            binding:"required" example:"+919800000000"`
	City            string `json:"city"             binding:"required" example:"Hyderabad"`
	State           string `json:"state"            example:"Telangana"`
	Pincode         string `json:"pincode"          binding:"required" example:"500001"`
	ShippingAddress string `json:"shipping_address" binding:"required" example:"12 MG Road"`
	BillingAddress  string `json:"billing_address"`
	Notes           string `json:"notes"`
}

func (r checkoutRequest) shipping() order.Shipping {
	billing := r.BillingAddress
	if billing == "" {
		billing = r.ShippingAddress
	}
	return order.Shipping{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Phone:           r.Phone,
		City:            r.City,
		State:           r.State,
		Pincode:         r.Pincode,
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  billing,
		Notes:           r.Notes,
	}
}

type failRequest struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
}

func initiateCheckoutHandler(o *checkout.Orchestrator, cache statusCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		res, err := o.Initiate(c.Request.Context(), auth.UserID(c), in.shipping())
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		for _, number := range res.Superseded {
			invalidate(c, cache, number)
		}
		c.JSON(http.StatusCreated, res)
	}
}

func confirmCheckoutHandler(o *checkout.Orchestrator, cache statusCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkout.ConfirmInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		res, err := o.Confirm(c.Request.Context(), in)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		invalidate(c, cache, res.OrderID)
		c.JSON(http.StatusOK, res)
	}
}

func failCheckoutHandler(o *checkout.Orchestrator, cache statusCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in failRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		ord, err := o.Fail(c.Request.Context(), auth.UserID(c), in.GatewayOrderID)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		invalidate(c, cache, ord.Number)
		c.JSON(http.StatusOK, ord)
	}
}

// invalidate drops a cached status; failures are logged and the entry ages out.
func invalidate(c *gin.Context, cache statusCache, number string) {
	if err := cache.Invalidate(c.Request.Context(), number); err != nil {
		log.Printf("[http] rid=%s order=%s status cache invalidate: %v", httpx.RID(c), number, err)
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/basket"
	"github.com/MikeMC777/storefront/internal/httpx"
)

func basketViewHandler(svc *basket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.View(c.Request.Context(), auth.UserID(c))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func basketAddHandler(svc *basket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := svc.Add(c.Request.Context(), auth.UserID(c), c.Param("product_id"))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, it)
	}
}

func basketRemoveHandler(svc *basket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Remove(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
			httpx.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func basketSetQuantityHandler(svc *basket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in basket.SetQuantityRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		it, err := svc.SetQuantity(c.Request.Context(), auth.UserID(c), c.Param("id"), in.Quantity)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/contact"
	"github.com/MikeMC777/storefront/internal/httpx"
)

func submitContactHandler(svc *contact.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in contact.SubmitRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		m, err := svc.Submit(c.Request.Context(), in)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": m.ID, "message": "Contact message submitted successfully."})
	}
}

func listContactHandler(svc *contact.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := page(c)
		out, err := svc.List(c.Request.Context(), limit, offset)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out, "limit": limit, "offset": offset})
	}
}

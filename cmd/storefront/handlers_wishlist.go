package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/apperr"
	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/wishlist"
)

func wishlistListHandler(repo wishlist.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := repo.List(c.Request.Context(), auth.UserID(c))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

// wishlistAddHandler answers 201 for a new entry and 200 when the product was already listed.
func wishlistAddHandler(repo wishlist.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, created, err := repo.Add(c.Request.Context(), auth.UserID(c), c.Param("product_id"))
		if errors.Is(err, wishlist.ErrProductNotFound) {
			httpx.Fail(c, errProductNotFound)
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, it)
	}
}

func wishlistRemoveHandler(repo wishlist.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := repo.Remove(c.Request.Context(), auth.UserID(c), c.Param("id"))
		if errors.Is(err, wishlist.ErrNotFound) {
			httpx.Fail(c, apperr.New(apperr.KindNotFound, apperr.CodeItemNotFound, "wishlist item not found"))
			return
		}
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/user"
)

func listUsersHandler(svc *user.Service) gin.HandlerFunc {
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

// setUserActiveHandler blocks or unblocks an account. Blocked users keep their
// data but can no longer log in, refresh tokens, shop or check out.
func setUserActiveHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.SetActiveRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		ctx := c.Request.Context()
		if err := svc.SetActive(ctx, c.Param("id"), *in.Active); err != nil {
			httpx.Fail(c, err)
			return
		}
		u, err := svc.Get(ctx, c.Param("id"))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

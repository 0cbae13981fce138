package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/otp"
	"github.com/MikeMC777/storefront/internal/user"
)

func registerHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RegisterRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		u, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func loginHandler(svc *user.Service, admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.LoginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		pair, u, err := svc.Login(c.Request.Context(), in.Email, in.Password, admin)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    pair.ExpiresIn,
			"user":          u,
		})
	}
}

func refreshHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RefreshRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		pair, err := svc.Refresh(c.Request.Context(), in.RefreshToken)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}

// sendCodeHandler issues a code of the given purpose to the posted address.
func sendCodeHandler(svc *otp.Service, purpose otp.Purpose) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in otp.SendCodeRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		if err := svc.Issue(c.Request.Context(), purpose, in.Email); err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
	}
}

func verifyCodeHandler(verify func(ctx context.Context, email, code string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in otp.VerifyCodeRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		if err := verify(c.Request.Context(), in.Email, in.Code); err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "verified"})
	}
}

func resetPasswordHandler(svc *otp.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in otp.ResetPasswordRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BindError(c, err)
			return
		}
		if err := svc.ResetPassword(c.Request.Context(), in.Email, in.Code, in.NewPassword); err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "password updated"})
	}
}

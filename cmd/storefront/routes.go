package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/basket"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/contact"
	_ "github.com/MikeMC777/storefront/internal/docs"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/metrics"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/otp"
	"github.com/MikeMC777/storefront/internal/user"
	"github.com/MikeMC777/storefront/internal/wishlist"
)

// statusCache is the order status poll cache (redis in production). Set only
// sticks while no Invalidate happened since the Version it was given.
type statusCache interface {
	Get(ctx context.Context, number string) (userID, status string, ok bool)
	Version(ctx context.Context, number string) (int64, error)
	Set(ctx context.Context, number string, version int64, userID, status string) error
	Invalidate(ctx context.Context, number string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string) (string, string, bool)       { return "", "", false }
func (noCache) Version(context.Context, string) (int64, error)           { return 0, nil }
func (noCache) Set(context.Context, string, int64, string, string) error { return nil }
func (noCache) Invalidate(context.Context, string) error                 { return nil }

type app struct {
	issuer   *auth.Issuer
	users    *user.Service
	codes    *otp.Service
	catalog  catalog.Repository
	contact  *contact.Service
	baskets  *basket.Service
	checkout *checkout.Orchestrator
	orders   order.Repository
	wishlist wishlist.Repository
	statuses statusCache
	metrics  *metrics.ServerMetrics
	shop     string
	origins  []string
	ping     func(ctx context.Context) error
}

func newRouter(a *app) *gin.Engine {
	if a.statuses == nil {
		a.statuses = noCache{}
	}
	r := gin.New()
	r.Use(httpx.Recovery(), httpx.RequestID(), httpx.Logger())
	if len(a.origins) > 0 {
		r.Use(httpx.CORS(a.origins))
	}
	if a.metrics != nil {
		r.Use(httpx.Metrics(a.metrics))
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	r.GET("/healthz", healthHandler(a.ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	ag := r.Group("/auth")
	ag.POST("/register", registerHandler(a.users))
	ag.POST("/login", loginHandler(a.users, false))
	ag.POST("/admin-login", loginHandler(a.users, true))
	ag.POST("/refresh", refreshHandler(a.users))
	ag.POST("/password/forgot", sendCodeHandler(a.codes, otp.PurposePasswordReset))
	ag.POST("/password/reset", resetPasswordHandler(a.codes))
	ag.POST("/email/send-code", sendCodeHandler(a.codes, otp.PurposeEmailVerify))
	ag.POST("/email/verify", verifyCodeHandler(a.codes.VerifyEmail))
	ag.POST("/otp/send", sendCodeHandler(a.codes, otp.PurposeOTP))
	ag.POST("/otp/verify", verifyCodeHandler(a.codes.Verify))

	r.GET("/products", listProductsHandler(a.catalog))
	r.GET("/products/:id", getProductHandler(a.catalog))
	r.GET("/products/:id/media", listMediaHandler(a.catalog))
	r.GET("/categories", listCategoriesHandler(a.catalog))
	r.POST("/contact", submitContactHandler(a.contact))

	me := r.Group("/", auth.Guard(a.issuer))

	// blocking an account stops spending right away, not when its token expires
	shop := me.Group("/", activeOnly(a.users))
	shop.GET("/basket", basketViewHandler(a.baskets))
	shop.POST("/basket/items/:product_id", basketAddHandler(a.baskets))
	shop.DELETE("/basket/items/:id", basketRemoveHandler(a.baskets))
	shop.PATCH("/basket/items/:id", basketSetQuantityHandler(a.baskets))

	shop.POST("/checkout", initiateCheckoutHandler(a.checkout, a.statuses))
	shop.POST("/checkout/confirm", confirmCheckoutHandler(a.checkout, a.statuses))
	shop.POST("/checkout/fail", failCheckoutHandler(a.checkout, a.statuses))

	me.GET("/orders", myOrdersHandler(a.orders))
	me.GET("/orders/:number", orderDetailHandler(a.orders))
	me.GET("/orders/:number/status", orderStatusHandler(a.orders, a.statuses))
	me.GET("/orders/:number/invoice", invoiceHandler(a.orders, a.users, a.shop))

	me.GET("/wishlist", wishlistListHandler(a.wishlist))
	me.POST("/wishlist/:product_id", wishlistAddHandler(a.wishlist))
	me.DELETE("/wishlist/:id", wishlistRemoveHandler(a.wishlist))

	admin := r.Group("/", auth.AdminGuard(a.issuer))
	admin.PATCH("/orders/:number/status", updateOrderStatusHandler(a.orders, a.statuses))
	admin.GET("/admin/orders", allOrdersHandler(a.orders))
	admin.GET("/admin/orders/export", exportOrdersHandler(a.orders))
	admin.GET("/admin/users", listUsersHandler(a.users))
	admin.PATCH("/admin/users/:id/active", setUserActiveHandler(a.users))
	admin.POST("/admin/products", createProductHandler(a.catalog))
	admin.PUT("/admin/products/:id", updateProductHandler(a.catalog))
	admin.DELETE("/admin/products/:id", deleteProductHandler(a.catalog))
	admin.POST("/admin/products/:id/media", addMediaHandler(a.catalog))
	admin.DELETE("/admin/media/:id", deleteMediaHandler(a.catalog))
	admin.POST("/admin/categories", createCategoryHandler(a.catalog))
	admin.GET("/admin/contact", listContactHandler(a.contact))

	return r
}

func activeOnly(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := users.EnsureActive(c.Request.Context(), auth.UserID(c)); err != nil {
			httpx.Fail(c, err)
			return
		}
		c.Next()
	}
}

func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.String(http.StatusServiceUnavailable, "db unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	}
}

// page reads limit/offset query params, clamping limit to 1..100 (default 20).
func page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

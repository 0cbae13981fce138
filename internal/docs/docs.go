// Package docs registers the storefront OpenAPI document with swag so that
// gin-swagger can serve it under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a customer", "responses": {"201": {"description": "Created"}, "409": {"description": "EmailTaken"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Customer login", "responses": {"200": {"description": "Token pair"}, "401": {"description": "InvalidCredentials"}, "403": {"description": "AccountBlocked"}}}},
        "/auth/admin-login": {"post": {"tags": ["auth"], "summary": "Admin login", "responses": {"200": {"description": "Token pair"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh tokens", "responses": {"200": {"description": "Token pair"}}}},
        "/auth/password/forgot": {"post": {"tags": ["codes"], "summary": "Send a password reset code", "responses": {"202": {"description": "Sent"}}}},
        "/auth/password/reset": {"post": {"tags": ["codes"], "summary": "Reset password with a code", "responses": {"200": {"description": "Reset"}}}},
        "/auth/email/send-code": {"post": {"tags": ["codes"], "summary": "Send an email verification code", "responses": {"202": {"description": "Sent"}}}},
        "/auth/email/verify": {"post": {"tags": ["codes"], "summary": "Verify email", "responses": {"200": {"description": "Verified"}}}},
        "/auth/otp/send": {"post": {"tags": ["codes"], "summary": "Send a one-time code", "responses": {"202": {"description": "Sent"}}}},
        "/auth/otp/verify": {"post": {"tags": ["codes"], "summary": "Verify a one-time code", "responses": {"200": {"description": "Verified"}}}},
        "/products": {"get": {"tags": ["catalog"], "summary": "List products", "responses": {"200": {"description": "Page of products"}}}},
        "/products/{id}": {"get": {"tags": ["catalog"], "summary": "Get product", "responses": {"200": {"description": "Product"}, "404": {"description": "ProductNotFound"}}}},
        "/categories": {"get": {"tags": ["catalog"], "summary": "List categories", "responses": {"200": {"description": "Categories"}}}},
        "/products/{id}/media": {"get": {"tags": ["catalog"], "summary": "Product images and videos", "responses": {"200": {"description": "Media"}, "404": {"description": "ProductNotFound"}}}},
        "/contact": {"post": {"tags": ["contact"], "summary": "Send a contact message", "responses": {"201": {"description": "Submitted"}, "400": {"description": "ValidationError"}}}},
        "/basket": {"get": {"tags": ["basket"], "summary": "Basket view", "security": [{"Bearer": []}], "responses": {"200": {"description": "Basket"}}}},
        "/basket/items/{product_id}": {"post": {"tags": ["basket"], "summary": "Add a product", "security": [{"Bearer": []}], "responses": {"201": {"description": "Line"}, "409": {"description": "OutOfStock or BasketLocked"}}}},
        "/basket/items/{id}": {
            "delete": {"tags": ["basket"], "summary": "Remove a line", "security": [{"Bearer": []}], "responses": {"204": {"description": "Removed"}}},
            "patch": {"tags": ["basket"], "summary": "Set line quantity", "security": [{"Bearer": []}], "responses": {"200": {"description": "Line"}, "409": {"description": "OutOfStock"}}}
        },
        "/checkout": {"post": {"tags": ["checkout"], "summary": "Open a payment transaction for the basket", "security": [{"Bearer": []}], "responses": {"201": {"description": "Gateway order"}, "502": {"description": "GatewayUnavailable"}}}},
        "/checkout/confirm": {"post": {"tags": ["checkout"], "summary": "Confirm a signed payment", "security": [{"Bearer": []}], "responses": {"200": {"description": "Paid"}, "400": {"description": "SignatureInvalid"}}}},
        "/checkout/fail": {"post": {"tags": ["checkout"], "summary": "Cancel a pending order", "security": [{"Bearer": []}], "responses": {"200": {"description": "Cancelled"}}}},
        "/orders": {"get": {"tags": ["orders"], "summary": "My orders", "security": [{"Bearer": []}], "responses": {"200": {"description": "Orders"}}}},
        "/orders/{number}": {"get": {"tags": ["orders"], "summary": "Order detail", "security": [{"Bearer": []}], "responses": {"200": {"description": "Order"}}}},
        "/orders/{number}/invoice": {"get": {"tags": ["orders"], "summary": "Invoice PDF", "produces": ["application/pdf"], "security": [{"Bearer": []}], "responses": {"200": {"description": "PDF"}}}},
        "/orders/{number}/status": {"patch": {"tags": ["admin"], "summary": "Update fulfilment status", "security": [{"Bearer": []}], "responses": {"200": {"description": "Order"}, "409": {"description": "InvalidTransition"}}}},
        "/wishlist": {"get": {"tags": ["wishlist"], "summary": "List wishlist", "security": [{"Bearer": []}], "responses": {"200": {"description": "Items"}}}},
        "/wishlist/{product_id}": {"post": {"tags": ["wishlist"], "summary": "Add to wishlist", "security": [{"Bearer": []}], "responses": {"201": {"description": "Added"}}}},
        "/wishlist/{id}": {"delete": {"tags": ["wishlist"], "summary": "Remove from wishlist", "security": [{"Bearer": []}], "responses": {"204": {"description": "Removed"}}}},
        "/admin/orders": {"get": {"tags": ["admin"], "summary": "All orders", "security": [{"Bearer": []}], "responses": {"200": {"description": "Orders"}}}},
        "/admin/orders/export": {"get": {"tags": ["admin"], "summary": "Order ledger as xlsx", "security": [{"Bearer": []}], "responses": {"200": {"description": "Spreadsheet"}}}},
        "/admin/users": {"get": {"tags": ["admin"], "summary": "List users", "security": [{"Bearer": []}], "responses": {"200": {"description": "Users"}}}},
        "/admin/users/{id}/active": {"patch": {"tags": ["admin"], "summary": "Block or unblock a user", "security": [{"Bearer": []}], "responses": {"200": {"description": "User"}}}},
        "/admin/products/{id}/media": {"post": {"tags": ["admin"], "summary": "Attach a media URL", "security": [{"Bearer": []}], "responses": {"201": {"description": "Media"}, "404": {"description": "ProductNotFound"}}}},
        "/admin/media/{id}": {"delete": {"tags": ["admin"], "summary": "Remove a media entry", "security": [{"Bearer": []}], "responses": {"204": {"description": "Removed"}}}},
        "/admin/contact": {"get": {"tags": ["admin"], "summary": "Contact messages", "security": [{"Bearer": []}], "responses": {"200": {"description": "Messages"}}}}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog, basket, checkout and order ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the handlers served under the versioned API
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	Outbox   *handler.OutboxHandler
}

// Guards is the request-scoped middleware the routes depend on.
// Authenticate is required. AuthLimit and Idempotency may be nil when disabled.
type Guards struct {
	Authenticate gin.HandlerFunc
	AuthLimit    gin.HandlerFunc
	Idempotency  gin.HandlerFunc
}

// APIGroups declares every storefront route, one group per bounded context
func APIGroups(h Handlers, g Guards) []RouteRegistrar {
	admin := middleware.RequireAdmin()

	auth := NewDomainGroup("identity", "/auth")
	auth.POST("/register", g.AuthLimit, h.Auth.Register)
	auth.POST("/login", g.AuthLimit, h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	session := auth.Group("session", "").Use(g.Authenticate)
	session.POST("/logout", h.Auth.Logout)
	session.POST("/logout-all", h.Auth.LogoutAll)
	session.GET("/me", h.Auth.Me)

	products := NewDomainGroup("catalog", "/products")
	products.GET("/:id", h.Products.Get)
	products.POST("", g.Authenticate, admin, h.Products.Create)

	cart := NewDomainGroup("cart", "/cart").Use(g.Authenticate)
	cart.GET("", h.Cart.Get)
	cart.POST("", h.Cart.Add)
	cart.DELETE("", h.Cart.Clear)
	cart.PUT("/:itemId", h.Cart.UpdateQuantity)
	cart.DELETE("/:itemId", h.Cart.Remove)

	orders := NewDomainGroup("order", "/orders").Use(g.Authenticate)
	orders.POST("", g.Idempotency, h.Orders.PlaceOrder)
	orders.GET("", h.Orders.List)
	orders.GET("/:id", h.Orders.Get)
	orders.PUT("/:id/status", admin, h.Orders.UpdateStatus)

	outbox := NewDomainGroup("outbox", "/admin/outbox").Use(g.Authenticate, admin)
	outbox.GET("/stats", h.Outbox.Stats)
	outbox.GET("/dead", h.Outbox.ListDead)
	outbox.POST("/retry-all", h.Outbox.RetryAll)
	outbox.GET("/:id", h.Outbox.Get)
	outbox.POST("/:id/retry", h.Outbox.Retry)

	return []RouteRegistrar{auth, products, cart, orders, outbox}
}

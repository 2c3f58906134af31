package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/capycoin/perkstore/internal/middleware/auth"
)

type Deps struct {
	Auth     *AuthHTTP
	Products *ProductHTTP
	Cart     *CartHTTP
	Orders   *OrderHTTP
	Credits  *CreditHTTP
	Admin    *AdminHTTP

	JWTSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewRequestValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")

	api.POST("/auth/dev/login", d.Auth.DevLogin)
	api.GET("/auth/dev/users", d.Auth.DevUsers)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)
	api.POST("/demo/verify", d.Auth.DemoVerify)

	api.GET("/products", d.Products.List)
	api.GET("/products/search", d.Products.SearchProducts)
	api.GET("/products/variants/:id", d.Products.GetVariant)
	api.GET("/products/:id", d.Products.Get)

	login := api.Group("", authmw.RequireLogin(d.JWTSecret))
	login.GET("/me", d.Auth.Me)

	login.GET("/credits/balance", d.Credits.Balance)
	login.GET("/credits/ledger", d.Credits.Ledger)

	login.GET("/cart", d.Cart.Get)
	login.DELETE("/cart", d.Cart.Clear)
	login.POST("/cart/items", d.Cart.Add)
	login.PATCH("/cart/items", d.Cart.SetQuantity)
	login.DELETE("/cart/items/:variant_id", d.Cart.Remove)
	login.POST("/cart/checkout", d.Cart.Checkout)

	login.POST("/orders", d.Orders.Create)
	login.GET("/orders", d.Orders.ListMine)
	login.GET("/orders/:id", d.Orders.Get)

	admin := login.Group("/admin", authmw.AdminOnly())

	admin.POST("/products", d.Admin.CreateProduct)
	admin.PATCH("/products/:id", d.Admin.UpdateProduct)
	admin.DELETE("/products/:id", d.Admin.DeleteProduct)
	admin.POST("/products/:id/variants", d.Admin.CreateVariant)
	admin.PATCH("/products/:id/variants/:variant_id", d.Admin.UpdateVariant)
	admin.DELETE("/products/:id/variants/:variant_id", d.Admin.DeleteVariant)

	admin.GET("/orders", d.Admin.ListOrders)
	admin.GET("/orders/pending", d.Admin.ListPendingOrders)
	admin.POST("/orders/:id/approve", d.Admin.ApproveOrder)
	admin.POST("/orders/:id/reject", d.Admin.RejectOrder)

	admin.POST("/inventory/adjust", d.Admin.AdjustInventory)
	admin.GET("/inventory/overview", d.Admin.InventoryOverview)
	admin.GET("/inventory/low-stock", d.Admin.LowStock)

	admin.POST("/credits/grant", d.Admin.GrantCredits)
	admin.POST("/credits/bulk-grant", d.Admin.BulkGrantCredits)

	admin.GET("/users", d.Admin.ListUsers)
	admin.POST("/users/import", d.Admin.ImportUsers)
	admin.GET("/users/:id/orders", d.Admin.UserOrders)
	admin.GET("/users/:id/balance", d.Admin.UserBalance)
	admin.GET("/users/:id/ledger", d.Admin.UserLedger)
}

// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"marketquery-server/commons"
	"marketquery-server/handlers"
	"marketquery-server/middlewares"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Router holds the explicitly constructed handlers and middleware; nothing
// here reaches for package-level state.
type Router struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Stats    *handlers.StatsHandler
	Products *handlers.ProductHandler
	Session  *middlewares.SessionAuth
	Gate     *middlewares.Gate
}

func (r *Router) Register(e *echo.Echo) {
	commons.Logger.Debug("Registering routes")

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"message": "Welcome to the MarketQuery API",
			"auth_methods": map[string]string{
				"dashboard": "JWT (Authorization: Bearer token)",
				"external":  "API key (Header: " + middlewares.HeaderAPIKey + ")",
			},
		})
	})

	auth := e.Group("/api/auth")
	auth.POST("/register", r.Auth.RegisterHandler)
	auth.POST("/login", r.Auth.LoginHandler)
	auth.GET("/profile", r.Users.ProfileHandler, r.Session.Verify)
	auth.PUT("/profile", r.Users.UpdateProfileHandler, r.Session.Verify)
	auth.PUT("/password", r.Users.ChangePasswordHandler, r.Session.Verify)
	auth.PUT("/reset-apikey", r.Users.ResetAPIKeyHandler, r.Session.Verify)
	auth.GET("/stats", r.Stats.StatsHandler, r.Session.Verify)
	auth.GET("/admin/users", r.Users.ListUsersHandler, r.Session.Verify, r.Session.RequireAdmin)
	auth.DELETE("/admin/users/:id", r.Users.DeleteUserHandler, r.Session.Verify, r.Session.RequireAdmin)

	products := e.Group("/api/products")
	products.GET("/external/all", r.Products.ListProductsHandler, r.Gate.Middleware)
	products.GET("/external/:id", r.Products.GetProductHandler, r.Gate.Middleware)
	products.GET("", r.Products.ListProductsHandler, r.Session.Verify)
	products.GET("/:id", r.Products.GetProductHandler, r.Session.Verify)
	products.POST("", r.Products.CreateProductHandler, r.Session.Verify, r.Session.RequireAdmin)
	products.PUT("/:id", r.Products.UpdateProductHandler, r.Session.Verify, r.Session.RequireAdmin)
	products.DELETE("/:id", r.Products.DeleteProductHandler, r.Session.Verify, r.Session.RequireAdmin)

	commons.Logger.Info("Routes registered successfully")
}

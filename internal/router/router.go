package router

import (
	"vendapos/internal/config"
	"vendapos/internal/handler"
	"vendapos/internal/middleware"
	"vendapos/internal/model"
	"vendapos/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Health   *handler.HealthHandler
	Sessions *handler.SessionHandler
	Sales    *handler.SaleHandler
	Products *handler.ProductHandler
	Expenses *handler.ExpenseHandler
	Coupons  *handler.CouponHandler
	Closures *handler.ClosureHandler
	Orders   *handler.OrderHandler
	Reports  *handler.ReportHandler
}

func New(cfg *config.Config, auth service.AuthService, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
		middleware.ErrorHandler(),
	)

	r.GET("/health", h.Health.Check)
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	elevated := []string{model.RoleManager, model.RoleAdmin}

	v1 := r.Group("/v1")

	// Login is rate limited per IP against credential stuffing.
	v1.POST("/auth/login", middleware.RateLimiter(30, 10), h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.Refresh)

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(auth))
	{
		authed.GET("/auth/me", h.Auth.Me)

		users := authed.Group("/users", middleware.RequireRole(model.RoleAdmin))
		{
			users.POST("", h.Auth.CreateUser)
			users.GET("", h.Auth.ListUsers)
			users.GET("/:id", h.Auth.GetUser)
			users.PUT("/:id", h.Auth.UpdateUser)
			users.DELETE("/:id", h.Auth.DeactivateUser)
			users.POST("/:id/reactivate", h.Auth.ReactivateUser)
		}

		sessions := authed.Group("/sessions")
		{
			sessions.POST("", h.Sessions.Open)
			sessions.GET("/current", h.Sessions.Current)
			sessions.POST("/:id/resources", h.Sessions.AddResources)
			// Close carries elevated credentials in the body, so the route
			// itself stays open to operators.
			sessions.POST("/:id/close", h.Sessions.Close)
			sessions.GET("", middleware.RequireRole(elevated...), h.Sessions.List)
			sessions.GET("/:id/closure", middleware.RequireRole(elevated...), h.Closures.GetBySession)
		}

		sales := authed.Group("/sales")
		{
			sales.POST("", h.Sales.Checkout)
			sales.GET("", h.Sales.List)
			sales.GET("/:id", h.Sales.Get)
			sales.POST("/:id/cancel", h.Sales.Cancel)
			sales.POST("/sync", h.Sales.Sync)
			sales.POST("/park", h.Sales.Park)
			sales.GET("/pending", middleware.RequireRole(elevated...), h.Sales.ListPending)
		}

		products := authed.Group("/products")
		{
			products.GET("", h.Products.List)
			products.GET("/:id", h.Products.Get)
			products.GET("/sku/:sku", h.Products.GetBySKU)
			products.POST("", middleware.RequireRole(elevated...), h.Products.Create)
			products.PUT("/:id", middleware.RequireRole(elevated...), h.Products.Update)
			products.DELETE("/:id", middleware.RequireRole(elevated...), h.Products.Deactivate)
			products.POST("/:id/reactivate", middleware.RequireRole(elevated...), h.Products.Reactivate)
			products.POST("/:id/stock", middleware.RequireRole(elevated...), h.Products.AdjustStock)
			products.GET("/:id/movements", middleware.RequireRole(elevated...), h.Products.Movements)
			products.POST("/labels", h.Products.LabelSheet)
		}

		expenses := authed.Group("/expenses", middleware.RequireRole(elevated...))
		{
			expenses.POST("", h.Expenses.Create)
			expenses.GET("", h.Expenses.List)
			expenses.GET("/:id", h.Expenses.Get)
			expenses.PUT("/:id", h.Expenses.Update)
			expenses.DELETE("/:id", h.Expenses.Delete)
		}

		coupons := authed.Group("/coupons")
		{
			coupons.GET("/validate/:code", h.Coupons.Validate)
			coupons.POST("", middleware.RequireRole(elevated...), h.Coupons.Create)
			coupons.GET("", middleware.RequireRole(elevated...), h.Coupons.List)
			coupons.PUT("/:id", middleware.RequireRole(elevated...), h.Coupons.Update)
			coupons.DELETE("/:id", middleware.RequireRole(elevated...), h.Coupons.Delete)
		}

		closures := authed.Group("/closures", middleware.RequireRole(elevated...))
		{
			closures.GET("", h.Closures.List)
			closures.GET("/:id", h.Closures.Get)
		}

		orders := authed.Group("/orders")
		{
			orders.POST("", h.Orders.Create)
			orders.GET("", h.Orders.List)
			orders.GET("/:id", h.Orders.Get)
			orders.PATCH("/:id/status", h.Orders.UpdateStatus)
			orders.GET("/:id/label", h.Orders.ShippingLabel)
		}

		reports := authed.Group("/reports", middleware.RequireRole(elevated...))
		{
			reports.GET("/sales", h.Reports.DailySales)
			reports.GET("/expenses", h.Reports.Expenses)
			reports.GET("/closures", h.Reports.Closures)
		}
	}

	return r
}

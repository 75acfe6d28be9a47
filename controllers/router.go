package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazario/middlewares"
	"bazario/models"
	"bazario/repository"
	"bazario/services"
)

type RouterDeps struct {
	JWTSecret string
	Users     repository.UserRepository
	Profiles  repository.VendorProfileRepository

	Accounts      *services.AccountService
	Orders        *services.OrderService
	Payments      *services.PaymentService
	Products      *services.ProductService
	Reviews       *services.ReviewService
	Notifications *services.NotificationService
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middlewares.AuthMiddleware(deps.JWTSecret, deps.Users)
	adminOnly := middlewares.RequireRoles(models.RoleAdmin)
	vendorOnly := middlewares.RequireRoles(models.RoleVendor)
	customerOnly := middlewares.RequireRoles(models.RoleCustomer)

	users := NewUserController(deps.Accounts)
	orders := NewOrderController(deps.Orders)
	payments := NewPaymentController(deps.Payments)
	products := NewProductController(deps.Products)
	reviews := NewReviewController(deps.Reviews)
	notifications := NewNotificationController(deps.Notifications)
	vendors := NewVendorController(deps.Profiles)

	api := r.Group("/api")

	u := api.Group("/users")
	{
		u.POST("/signup", users.Signup)
		u.POST("/login", users.Login)
		u.GET("/verify", users.Verify)
		u.GET("/profile", auth, users.Profile)
		u.PUT("/profile", auth, users.UpdateProfile)
		u.GET("", auth, adminOnly, users.List)
		u.PUT("/:id/promote", auth, adminOnly, users.Promote)
		u.PUT("/:id/demote", auth, adminOnly, users.Demote)
		u.DELETE("/:id", auth, adminOnly, users.Delete)
	}

	v := api.Group("/vendors")
	{
		v.POST("", auth, vendorOnly, vendors.Create)
		v.GET("", vendors.List)
	}

	p := api.Group("/products")
	{
		p.GET("", products.List)
		p.GET("/:id", products.Get)
		p.POST("", auth, vendorOnly, products.Create)
		p.PUT("/:id", auth, vendorOnly, products.Update)
		p.DELETE("/:id", auth, middlewares.RequireRoles(models.RoleVendor, models.RoleAdmin), products.Delete)
	}

	o := api.Group("/orders", auth)
	{
		o.POST("", customerOnly, orders.Place)
		o.GET("", orders.List)
		o.GET("/my-orders", orders.MyOrders)
		o.GET("/admin", adminOnly, orders.ListAdmin)
		o.GET("/vendor", vendorOnly, orders.VendorSales)
		o.GET("/:id", orders.Get)
		o.PUT("/:id/status", orders.UpdateStatus)
		o.DELETE("/:id/admin", adminOnly, orders.Delete)
	}

	pay := api.Group("/payments")
	{
		pay.POST("/pay", auth, customerOnly, payments.Pay)
		// webhook-style confirmation; the session id is the credential
		pay.POST("/success", payments.Success)
		pay.PUT("/retry-payment/:orderId", auth, customerOnly, payments.Retry)
		pay.POST("", auth, customerOnly, payments.Direct)
	}

	rev := api.Group("/reviews")
	{
		rev.POST("", auth, customerOnly, reviews.Add)
		rev.GET("/:productId", reviews.ListByProduct)
	}

	n := api.Group("/notifications", auth, vendorOnly)
	{
		n.GET("", notifications.List)
		n.PUT("/mark-read/:id", notifications.MarkRead)
	}

	return r
}

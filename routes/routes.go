package routes

import (
	"orderpro/controllers"
	"orderpro/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles the controllers served under /api.
type Handlers struct {
	Orders     *controllers.OrderController
	Deliveries *controllers.DeliveryController
	Customers  *controllers.CustomerController
	Products   *controllers.ProductController
}

// RegisterRoutes mounts the API. Every route requires a valid token; writes
// additionally require the admin role.
func RegisterRoutes(r *gin.Engine, jwtSecret []byte, h Handlers) {
	protect := middleware.Protect(jwtSecret)
	admin := middleware.AdminOnly()

	api := r.Group("/api")
	api.Use(protect)

	orders := api.Group("/orders")
	orders.GET("", h.Orders.ListOrders)
	orders.POST("", admin, h.Orders.PlaceOrder)
	orders.GET("/dashboard-metrics", h.Orders.DashboardMetrics)
	orders.GET("/:id", h.Orders.GetOrder)
	orders.PUT("/:id", admin, h.Orders.UpdateOrderStatus)
	orders.DELETE("/:id", admin, h.Orders.DeleteOrder)

	deliveries := api.Group("/deliveries")
	deliveries.GET("", h.Deliveries.ListDeliveries)
	deliveries.PUT("/:id/status", admin, h.Deliveries.UpdateDeliveryStatus)

	customers := api.Group("/customers")
	customers.GET("", h.Customers.ListCustomers)
	customers.POST("", admin, h.Customers.CreateCustomer)
	customers.GET("/:id", h.Customers.GetCustomer)
	customers.PUT("/:id", admin, h.Customers.UpdateCustomer)
	customers.DELETE("/:id", admin, h.Customers.DeleteCustomer)

	products := api.Group("/products")
	products.GET("", h.Products.ListProducts)
	products.POST("", admin, h.Products.CreateProduct)
	products.GET("/:id", h.Products.GetProduct)
	products.PUT("/:id", admin, h.Products.UpdateProduct)
	products.DELETE("/:id", admin, h.Products.DeleteProduct)
}

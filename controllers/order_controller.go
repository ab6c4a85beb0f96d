package controllers

import (
	"net/http"

	"orderpro/models"
	"orderpro/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orders    *services.OrderService
	dashboard *services.DashboardService
}

func NewOrderController(orders *services.OrderService, dashboard *services.DashboardService) *OrderController {
	return &OrderController{orders: orders, dashboard: dashboard}
}

// PlaceOrder handles POST /api/orders
func (oc *OrderController) PlaceOrder(ctx *gin.Context) {
	var req models.PlaceOrderRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	placed, err := oc.orders.PlaceOrder(ctx.Request.Context(), a, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, placed)
}

// ListOrders handles GET /api/orders
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	orders, err := oc.orders.ListOrders(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/:id
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	order, err := oc.orders.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/orders/:id
func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	order, err := oc.orders.UpdateOrderStatus(ctx.Request.Context(), a, ctx.Param("id"), req.Status)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/orders/:id
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	a, ok := actor(ctx)
	if !ok {
		return
	}
	if err := oc.orders.DeleteOrder(ctx.Request.Context(), a, ctx.Param("id")); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order removed"})
}

// DashboardMetrics handles GET /api/orders/dashboard-metrics
func (oc *OrderController) DashboardMetrics(ctx *gin.Context) {
	metrics, err := oc.dashboard.ComputeDashboardMetrics(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, metrics)
}

package controllers

import (
	"net/http"

	"orderpro/models"
	"orderpro/services"

	"github.com/gin-gonic/gin"
)

type DeliveryController struct {
	deliveries *services.DeliveryService
}

func NewDeliveryController(deliveries *services.DeliveryService) *DeliveryController {
	return &DeliveryController{deliveries: deliveries}
}

// ListDeliveries handles GET /api/deliveries
func (dc *DeliveryController) ListDeliveries(ctx *gin.Context) {
	deliveries, err := dc.deliveries.ListDeliveries(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, deliveries)
}

// UpdateDeliveryStatus handles PUT /api/deliveries/:id/status
func (dc *DeliveryController) UpdateDeliveryStatus(ctx *gin.Context) {
	var req models.UpdateDeliveryStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	delivery, err := dc.deliveries.UpdateDeliveryStatus(ctx.Request.Context(), a, ctx.Param("id"), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, delivery)
}

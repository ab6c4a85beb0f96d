package controllers

import (
	"net/http"

	"orderpro/models"
	"orderpro/services"

	"github.com/gin-gonic/gin"
)

type CustomerController struct {
	customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{customers: customers}
}

func (cc *CustomerController) ListCustomers(ctx *gin.Context) {
	customers, err := cc.customers.ListCustomers(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, customers)
}

func (cc *CustomerController) GetCustomer(ctx *gin.Context) {
	customer, err := cc.customers.GetCustomer(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) CreateCustomer(ctx *gin.Context) {
	var req models.CreateCustomerRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	customer, err := cc.customers.CreateCustomer(ctx.Request.Context(), a, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, customer)
}

func (cc *CustomerController) UpdateCustomer(ctx *gin.Context) {
	var req models.UpdateCustomerRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	customer, err := cc.customers.UpdateCustomer(ctx.Request.Context(), a, ctx.Param("id"), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) DeleteCustomer(ctx *gin.Context) {
	a, ok := actor(ctx)
	if !ok {
		return
	}
	if err := cc.customers.DeleteCustomer(ctx.Request.Context(), a, ctx.Param("id")); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Customer removed"})
}

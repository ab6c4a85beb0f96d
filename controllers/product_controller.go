package controllers

import (
	"net/http"

	"orderpro/models"
	"orderpro/services"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (pc *ProductController) ListProducts(ctx *gin.Context) {
	products, err := pc.products.ListProducts(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func (pc *ProductController) GetProduct(ctx *gin.Context) {
	product, err := pc.products.GetProduct(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func (pc *ProductController) CreateProduct(ctx *gin.Context) {
	var req models.CreateProductRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	product, err := pc.products.CreateProduct(ctx.Request.Context(), a, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, product)
}

func (pc *ProductController) UpdateProduct(ctx *gin.Context) {
	var req models.UpdateProductRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, ok := actor(ctx)
	if !ok {
		return
	}

	product, err := pc.products.UpdateProduct(ctx.Request.Context(), a, ctx.Param("id"), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func (pc *ProductController) DeleteProduct(ctx *gin.Context) {
	a, ok := actor(ctx)
	if !ok {
		return
	}
	if err := pc.products.DeleteProduct(ctx.Request.Context(), a, ctx.Param("id")); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

package controllers

import (
	apperrors "orderpro/common/errors"
	"orderpro/middleware"
	"orderpro/models"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the request body into dst. A malformed body is recorded
// as a validation error for the error middleware.
func bindJSON(ctx *gin.Context, dst any) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		_ = ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return false
	}
	return true
}

func actor(ctx *gin.Context) (models.Actor, bool) {
	a, err := middleware.GetActor(ctx)
	if err != nil {
		_ = ctx.Error(apperrors.Internal("acting user missing from request", err))
		return models.Actor{}, false
	}
	return a, true
}

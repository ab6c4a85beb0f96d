package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("bad").StatusCode())
	assert.Equal(t, http.StatusNotFound, NotFound("gone").StatusCode())
	assert.Equal(t, http.StatusBadRequest, Conflict("taken").StatusCode())
	assert.Equal(t, http.StatusInternalServerError, Internal("boom", nil).StatusCode())
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("placing order: %w", NotFound("Customer not found"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("disk full")))
	assert.False(t, Is(nil, KindInternal))
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Internal("load order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load order: connection reset", err.Error())
}

func serve(hideInternal bool, err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware(zap.NewNop(), hideInternal))
	r.GET("/", func(c *gin.Context) { _ = c.Error(err) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestErrorMiddleware(t *testing.T) {
	w := serve(true, Conflict("Not enough stock for %s", "Widget"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Not enough stock for Widget"}`, w.Body.String())

	w = serve(true, fmt.Errorf("list orders: %w", stderrors.New("socket closed")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())

	w = serve(false, fmt.Errorf("list orders: %w", stderrors.New("socket closed")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "socket closed")
}

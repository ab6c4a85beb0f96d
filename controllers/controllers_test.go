package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "orderpro/common/errors"
	"orderpro/controllers"
	"orderpro/models"
	"orderpro/repository"
	"orderpro/repository/memory"
	"orderpro/routes"
	"orderpro/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var secret = []byte("controller-test-secret")

type testServer struct {
	router     *gin.Engine
	store      *repository.Store
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New().Repositories()
	log := zap.NewNop()

	orderSvc := services.NewOrderService(store, nil, nil, log)
	dashboardSvc := services.NewDashboardService(store, nil, log)

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware(log, true))
	routes.RegisterRoutes(r, secret, routes.Handlers{
		Orders:     controllers.NewOrderController(orderSvc, dashboardSvc),
		Deliveries: controllers.NewDeliveryController(services.NewDeliveryService(store, nil, nil, log)),
		Customers:  controllers.NewCustomerController(services.NewCustomerService(store.Customers, nil, log)),
		Products:   controllers.NewProductController(services.NewProductService(store.Products, nil, log)),
	})

	return &testServer{
		router:     r,
		store:      store,
		adminToken: token(t, "staff-admin", models.RoleAdmin),
		userToken:  token(t, "staff-user", models.RoleUser),
	}
}

func token(t *testing.T, id, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": id, "role": role}).SignedString(secret)
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T) (*models.Customer, *models.Product, *models.Product) {
	t.Helper()
	ctx := context.Background()
	c := &models.Customer{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.store.Customers.Create(ctx, c))
	p1 := &models.Product{Name: "Widget", Price: 10, CountInStock: 5}
	require.NoError(t, s.store.Products.Create(ctx, p1))
	p2 := &models.Product{Name: "Gadget", Price: 20, CountInStock: 5}
	require.NoError(t, s.store.Products.Create(ctx, p2))
	return c, p1, p2
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

func TestPlaceOrderEndpoint(t *testing.T) {
	s := newTestServer(t)
	c, p1, p2 := s.seed(t)

	w := s.do(t, http.MethodPost, "/api/orders", s.adminToken, gin.H{
		"customer":       c.ID.Hex(),
		"items":          []gin.H{{"product": p1.ID.Hex(), "quantity": 2}, {"product": p2.ID.Hex(), "quantity": 1}},
		"shippingMethod": "Express",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var placed models.PlacedOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.Equal(t, 40.0, placed.Order.Total)
	assert.Equal(t, models.ShippingExpress, placed.Order.ShippingMethod)
	assert.Equal(t, "staff-admin", placed.Order.User)
	assert.Equal(t, models.DeliveryPending, placed.Delivery.Status)
}

func TestPlaceOrderEndpoint_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	c, p1, _ := s.seed(t)

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"empty items", gin.H{"customer": c.ID.Hex(), "items": []gin.H{}}, http.StatusBadRequest, "No order items"},
		{"unknown customer", gin.H{"customer": primitive.NewObjectID().Hex(), "items": []gin.H{{"product": p1.ID.Hex(), "quantity": 1}}}, http.StatusNotFound, "Customer not found"},
		{"insufficient stock", gin.H{"customer": c.ID.Hex(), "items": []gin.H{{"product": p1.ID.Hex(), "quantity": 10}}}, http.StatusBadRequest, "Not enough stock for Widget"},
		{"malformed body", `{"customer":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/orders", s.adminToken, tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, message(t, w))
			}
		})
	}
}

func TestWritesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	c, p1, _ := s.seed(t)

	writes := []struct{ method, path string }{
		{http.MethodPost, "/api/orders"},
		{http.MethodPut, "/api/orders/" + primitive.NewObjectID().Hex()},
		{http.MethodDelete, "/api/orders/" + primitive.NewObjectID().Hex()},
		{http.MethodPut, "/api/deliveries/" + primitive.NewObjectID().Hex() + "/status"},
		{http.MethodPost, "/api/customers"},
		{http.MethodDelete, "/api/customers/" + c.ID.Hex()},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/" + p1.ID.Hex()},
	}
	for _, wr := range writes {
		w := s.do(t, wr.method, wr.path, s.userToken, gin.H{})
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", wr.method, wr.path)
	}

	w := s.do(t, http.MethodGet, "/api/orders", s.userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)
	c, p1, _ := s.seed(t)

	w := s.do(t, http.MethodPost, "/api/orders", s.adminToken, gin.H{
		"customer": c.ID.Hex(),
		"items":    []gin.H{{"product": p1.ID.Hex(), "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var placed models.PlacedOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	orderPath := "/api/orders/" + placed.Order.ID.Hex()

	w = s.do(t, http.MethodGet, orderPath, s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.OrderView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Ada", view.Customer.Name)
	assert.Equal(t, "Widget", view.Items[0].Product.Name)

	w = s.do(t, http.MethodPut, orderPath, s.adminToken, gin.H{"status": "Bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, orderPath, s.adminToken, gin.H{"status": "Shipped"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.OrderStatusShipped, view.Status)

	deliveryPath := "/api/deliveries/" + placed.Delivery.ID.Hex() + "/status"
	w = s.do(t, http.MethodPut, deliveryPath, s.adminToken, gin.H{
		"deliveryStatus": "Delivered",
		"deliveryDate":   "2024-06-01T10:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dv models.DeliveryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dv))
	require.NotNil(t, dv.Date)
	assert.Equal(t, "2024-06-01T10:00:00Z", dv.Date.Format("2006-01-02T15:04:05Z07:00"))

	w = s.do(t, http.MethodGet, "/api/deliveries", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deliveries []models.DeliveryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deliveries))
	assert.Len(t, deliveries, 1)

	w = s.do(t, http.MethodGet, "/api/orders/dashboard-metrics", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var metrics models.DashboardMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, int64(1), metrics.TotalOrders)
	assert.Equal(t, 10.0, metrics.TotalRevenue)

	w = s.do(t, http.MethodDelete, orderPath, s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order removed", message(t, w))

	w = s.do(t, http.MethodGet, orderPath, s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", message(t, w))
}

func TestCustomerEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/customers", s.adminToken, gin.H{"name": "Grace", "email": "grace@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var c models.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))

	w = s.do(t, http.MethodPost, "/api/customers", s.adminToken, gin.H{"name": "Other", "email": "GRACE@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Customer with this email already exists", message(t, w))

	w = s.do(t, http.MethodPut, "/api/customers/"+c.ID.Hex(), s.adminToken, gin.H{"phone": "555"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "555", c.Phone)
	assert.Equal(t, "Grace", c.Name)

	w = s.do(t, http.MethodGet, "/api/customers", s.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	w = s.do(t, http.MethodDelete, "/api/customers/"+c.ID.Hex(), s.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/customers/"+c.ID.Hex(), s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/products", s.adminToken, gin.H{"name": "Lamp", "price": 12.5, "countInStock": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	w = s.do(t, http.MethodPut, "/api/products/"+p.ID.Hex(), s.adminToken, gin.H{"countInStock": 0})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 0, p.CountInStock)
	assert.Equal(t, 12.5, p.Price)

	w = s.do(t, http.MethodPost, "/api/products", s.adminToken, gin.H{"name": "Bad", "price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/products/not-an-id", s.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", message(t, w))
}

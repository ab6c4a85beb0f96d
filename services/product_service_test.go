package services_test

import (
	"context"
	"sync"
	"testing"

	apperrors "orderpro/common/errors"
	"orderpro/models"
	"orderpro/repository"
	"orderpro/repository/memory"
	"orderpro/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProductService() *services.ProductService {
	return services.NewProductService(memory.New().Repositories().Products, nil, zap.NewNop())
}

func TestCreateProduct(t *testing.T) {
	svc := newProductService()

	p, err := svc.CreateProduct(context.Background(), admin, &models.CreateProductRequest{
		Name:         "Lamp",
		Price:        19.999,
		CountInStock: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 20.00, p.Price)
	assert.Equal(t, 4, p.CountInStock)

	all, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := newProductService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateProductRequest
	}{
		{"missing name", models.CreateProductRequest{Price: 1}},
		{"negative price", models.CreateProductRequest{Name: "X", Price: -1}},
		{"negative stock", models.CreateProductRequest{Name: "X", CountInStock: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, admin, &tt.req)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}

func TestUpdateProduct_ZeroValuesAreApplied(t *testing.T) {
	svc := newProductService()
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, admin, &models.CreateProductRequest{Name: "Lamp", Price: 12, CountInStock: 9})
	require.NoError(t, err)

	zeroStock, zeroPrice := 0, 0.0
	updated, err := svc.UpdateProduct(ctx, admin, p.ID.Hex(), &models.UpdateProductRequest{
		CountInStock: &zeroStock,
		Price:        &zeroPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, updated.CountInStock)
	assert.Equal(t, 0.0, updated.Price)
	assert.Equal(t, "Lamp", updated.Name)
}

// interleavingProducts runs between once, before the first read or write
// that the product service issues.
type interleavingProducts struct {
	repository.ProductRepository
	once    sync.Once
	between func()
}

func (p *interleavingProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	p.once.Do(p.between)
	return p.ProductRepository.FindByID(ctx, id)
}

func (p *interleavingProducts) Patch(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	p.once.Do(p.between)
	return p.ProductRepository.Patch(ctx, id, patch)
}

func TestUpdateProduct_KeepsStockReservedDuringEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	products := &interleavingProducts{
		ProductRepository: f.store.Products,
		between: func() {
			_, err := f.orderService().PlaceOrder(ctx, admin, &models.PlaceOrderRequest{
				Customer: f.customer.ID.Hex(),
				Items:    []models.LineItemRequest{line(f.p1, 5)},
			})
			require.NoError(t, err)
		},
	}
	svc := services.NewProductService(products, nil, zap.NewNop())

	name, price := "Widget v2", 12.5
	updated, err := svc.UpdateProduct(ctx, admin, f.p1.ID.Hex(), &models.UpdateProductRequest{Name: &name, Price: &price})
	require.NoError(t, err)

	assert.Equal(t, "Widget v2", updated.Name)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, 0, updated.CountInStock)
	assert.Equal(t, 0, f.stock(t, f.p1))
}

func TestUpdateProduct_ExplicitStockOverridesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	placeOne(t, f, f.orderService())

	stock := 7
	svc := services.NewProductService(f.store.Products, nil, zap.NewNop())
	updated, err := svc.UpdateProduct(ctx, admin, f.p1.ID.Hex(), &models.UpdateProductRequest{CountInStock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.CountInStock)
	assert.Equal(t, "Widget", updated.Name)
}

func TestUpdateProduct_Errors(t *testing.T) {
	svc := newProductService()
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, admin, &models.CreateProductRequest{Name: "Lamp", Price: 12, CountInStock: 9})
	require.NoError(t, err)

	negative := -1
	_, err = svc.UpdateProduct(ctx, admin, p.ID.Hex(), &models.UpdateProductRequest{CountInStock: &negative})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	blank := "   "
	_, err = svc.UpdateProduct(ctx, admin, p.ID.Hex(), &models.UpdateProductRequest{Name: &blank})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.UpdateProduct(ctx, admin, "000000000000000000000000", &models.UpdateProductRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, "Product not found", err.Error())
}

func TestDeleteProduct(t *testing.T) {
	svc := newProductService()
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, admin, &models.CreateProductRequest{Name: "Lamp"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, admin, p.ID.Hex()))
	_, err = svc.GetProduct(ctx, p.ID.Hex())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

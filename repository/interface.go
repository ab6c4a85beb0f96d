package repository

import (
	"context"
	"errors"

	"orderpro/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate key")
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Customer, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindAll(ctx context.Context) ([]models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	FindAll(ctx context.Context) ([]models.Product, error)
	// FindLowStock returns at most limit products whose stock is <= threshold,
	// lowest stock first.
	FindLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Patch writes only the fields set in patch and returns the stored
	// product afterwards.
	Patch(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// DecrementStock atomically removes quantity units if at least that many
	// are in stock, otherwise returns ErrInsufficientStock.
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Order, error)
	// FindAll returns every order, newest order date first.
	FindAll(ctx context.Context) ([]models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	// SumTotals sums the total of every order, 0 when there are none.
	SumTotals(ctx context.Context) (float64, error)
}

// DeliveryRepository defines the interface for delivery data access
type DeliveryRepository interface {
	FindByID(ctx context.Context, id string) (*models.Delivery, error)
	FindByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Delivery, error)
	FindAll(ctx context.Context) ([]models.Delivery, error)
	// CreateForOrder inserts delivery unless one already exists for its
	// order, in which case delivery is filled with the stored document.
	CreateForOrder(ctx context.Context, delivery *models.Delivery) error
	Update(ctx context.Context, delivery *models.Delivery) error
	DeleteByOrderID(ctx context.Context, orderID primitive.ObjectID) error
}

// Transactor runs fn as one unit of work. Implementations without real
// transactions simply call fn.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store groups the repositories of one backend.
type Store struct {
	Customers  CustomerRepository
	Products   ProductRepository
	Orders     OrderRepository
	Deliveries DeliveryRepository
	Tx         Transactor
}

// ParseID converts a hex id, reporting malformed ids as ErrNotFound since
// they cannot reference any document.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

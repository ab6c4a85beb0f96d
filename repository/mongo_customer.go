package repository

import (
	"context"
	"errors"
	"fmt"

	"orderpro/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CustomersCollection  = "customers"
	ProductsCollection   = "products"
	OrdersCollection     = "orders"
	DeliveriesCollection = "deliveries"
)

// MongoCustomerRepository implements CustomerRepository using MongoDB
type MongoCustomerRepository struct {
	coll *mongo.Collection
}

func NewMongoCustomerRepository(db *mongo.Database) *MongoCustomerRepository {
	return &MongoCustomerRepository{coll: db.Collection(CustomersCollection)}
}

func (r *MongoCustomerRepository) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoCustomerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoCustomerRepository) findOne(ctx context.Context, filter bson.M) (*models.Customer, error) {
	var c models.Customer
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

func (r *MongoCustomerRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Customer, error) {
	out := make(map[primitive.ObjectID]*models.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var customers []models.Customer
	if err := findAll(ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}}, nil, &customers); err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}
	for i := range customers {
		out[customers[i].ID] = &customers[i]
	}
	return out, nil
}

func (r *MongoCustomerRepository) FindAll(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.coll, bson.M{}, opts, &customers); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (r *MongoCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, customer); err != nil {
		return translateWriteError("insert customer", err)
	}
	return nil
}

func (r *MongoCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return replaceByID(ctx, r.coll, customer.ID, customer, "customer")
}

func (r *MongoCustomerRepository) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	return deleteByID(ctx, r.coll, oid, "customer")
}

func (r *MongoCustomerRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// findAll decodes every document matching filter into results.
func findAll(ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, results any) error {
	findOpts := []*options.FindOptions{}
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return err
	}
	return cur.All(ctx, results)
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc any, what string) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translateWriteError("update "+what, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, what string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func translateWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

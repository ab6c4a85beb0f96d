package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderpro/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository implements ProductRepository using MongoDB
type MongoProductRepository struct {
	coll *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection(ProductsCollection)}
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (r *MongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := findAll(ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}}, nil, &products); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *MongoProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.coll, bson.M{}, opts, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) FindLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	products := []models.Product{}
	opts := options.Find().
		SetSort(bson.D{{Key: "countInStock", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	filter := bson.M{"countInStock": bson.M{"$lte": threshold}}
	if err := findAll(ctx, r.coll, filter, opts, &products); err != nil {
		return nil, fmt.Errorf("find low stock products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return translateWriteError("insert product", err)
	}
	return nil
}

// Patch applies a single $set of the patched fields, so concurrent stock
// decrements survive an edit of the other fields.
func (r *MongoProductRepository) Patch(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.CountInStock != nil {
		set["countInStock"] = *patch.CountInStock
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &p, nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	return deleteByID(ctx, r.coll, oid, "product")
}

func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// DecrementStock atomically decrements countInStock, guarded by
// countInStock >= quantity in the same update.
func (r *MongoProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	filter := bson.M{
		"_id":          id,
		"countInStock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"countInStock": -quantity},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the product vanished or the guard failed; tell them apart.
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *MongoProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	update := bson.M{
		"$inc": bson.M{"countInStock": quantity},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

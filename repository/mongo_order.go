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

// MongoOrderRepository implements OrderRepository using MongoDB
type MongoOrderRepository struct {
	coll *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{coll: db.Collection(OrdersCollection)}
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

func (r *MongoOrderRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Order, error) {
	out := make(map[primitive.ObjectID]*models.Order, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var orders []models.Order
	if err := findAll(ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}}, nil, &orders); err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	for i := range orders {
		out[orders[i].ID] = &orders[i]
	}
	return out, nil
}

func (r *MongoOrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	opts := options.Find().SetSort(bson.D{
		{Key: "orderDate", Value: -1},
		{Key: "_id", Value: 1},
	})
	if err := findAll(ctx, r.coll, bson.M{}, opts, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return translateWriteError("insert order", err)
	}
	return nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return replaceByID(ctx, r.coll, order.ID, order, "order")
}

func (r *MongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.coll, id, "order")
}

func (r *MongoOrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *MongoOrderRepository) SumTotals(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("sum order totals: %w", err)
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("sum order totals: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return models.RoundCents(rows[0].Total), nil
}

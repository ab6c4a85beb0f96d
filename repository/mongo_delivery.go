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

// MongoDeliveryRepository implements DeliveryRepository using MongoDB
type MongoDeliveryRepository struct {
	coll *mongo.Collection
}

func NewMongoDeliveryRepository(db *mongo.Database) *MongoDeliveryRepository {
	return &MongoDeliveryRepository{coll: db.Collection(DeliveriesCollection)}
}

func (r *MongoDeliveryRepository) FindByID(ctx context.Context, id string) (*models.Delivery, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoDeliveryRepository) FindByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Delivery, error) {
	return r.findOne(ctx, bson.M{"order": orderID})
}

func (r *MongoDeliveryRepository) findOne(ctx context.Context, filter bson.M) (*models.Delivery, error) {
	var d models.Delivery
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find delivery: %w", err)
	}
	return &d, nil
}

func (r *MongoDeliveryRepository) FindAll(ctx context.Context) ([]models.Delivery, error) {
	deliveries := []models.Delivery{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.coll, bson.M{}, opts, &deliveries); err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// CreateForOrder upserts on the order reference so retries never produce a
// second delivery for the same order.
func (r *MongoDeliveryRepository) CreateForOrder(ctx context.Context, delivery *models.Delivery) error {
	if delivery.ID.IsZero() {
		delivery.ID = primitive.NewObjectID()
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"order": delivery.Order},
		bson.M{"$setOnInsert": delivery},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return translateWriteError("insert delivery", err)
	}
	if res.UpsertedCount == 1 {
		return nil
	}

	existing, err := r.FindByOrderID(ctx, delivery.Order)
	if err != nil {
		return err
	}
	*delivery = *existing
	return nil
}

func (r *MongoDeliveryRepository) Update(ctx context.Context, delivery *models.Delivery) error {
	return replaceByID(ctx, r.coll, delivery.ID, delivery, "delivery")
}

func (r *MongoDeliveryRepository) DeleteByOrderID(ctx context.Context, orderID primitive.ObjectID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"order": orderID}); err != nil {
		return fmt.Errorf("delete delivery: %w", err)
	}
	return nil
}

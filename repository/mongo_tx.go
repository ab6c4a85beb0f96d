package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactor runs units of work inside a MongoDB session transaction.
// It requires a replica set or sharded cluster.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NoTransaction calls fn directly; callers rely on their own compensation.
type NoTransaction struct{}

func (NoTransaction) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewMongoStore wires the MongoDB repositories. With transactions disabled
// the store falls back to NoTransaction.
func NewMongoStore(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	var tx Transactor = NoTransaction{}
	if transactions {
		tx = NewMongoTransactor(client)
	}
	return &Store{
		Customers:  NewMongoCustomerRepository(db),
		Products:   NewMongoProductRepository(db),
		Orders:     NewMongoOrderRepository(db),
		Deliveries: NewMongoDeliveryRepository(db),
		Tx:         tx,
	}
}

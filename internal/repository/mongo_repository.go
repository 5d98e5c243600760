package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	SessionID string    `bson:"session_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoRepository(db *mongo.Database, ttl time.Duration) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
		ttl:        ttl,
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, sessionID string) ([]byte, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return []byte(doc.Payload), nil
}

func (m *MongoRepository) UpsertCart(ctx context.Context, sessionID string, payload []byte) error {
	filter := bson.M{"session_id": sessionID}
	update := bson.M{"$set": cartDocument{
		SessionID: sessionID,
		Payload:   string(payload),
		UpdatedAt: time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, sessionID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

// CreateIndexes makes session_id unique and, when a ttl is set, expires carts
// that have not been touched for that long.
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if m.ttl > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.ttl.Seconds())),
		})
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

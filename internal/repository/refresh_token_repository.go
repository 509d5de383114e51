package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shop-app/auth-service/internal/domain"
)

// RefreshTokenRepository tracks the currently-valid refresh tokens per
// user. A user may hold several at once (one per device/session).
type RefreshTokenRepository interface {
	// Save inserts the record. Re-saving the same token is a no-op.
	Save(ctx context.Context, token *domain.RefreshToken) error

	// Exists reports whether the token is currently recognized for the user.
	Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error)

	// Remove deletes the record and reports whether it was present.
	// The delete is atomic: of two concurrent calls for the same
	// (user, token) pair, exactly one observes true. Rotation relies on
	// this to keep refresh tokens single-use.
	Remove(ctx context.Context, userID uuid.UUID, token string) (bool, error)

	// DeleteExpired bulk-deletes every record whose expiry is at or
	// before now and returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type MongoDBRefreshTokenRepository struct {
	client     *mongo.Client
	dbName     string
	collection string
}

func NewMongoDBRefreshTokenRepository(ctx context.Context, mongoURI, dbName string) (*MongoDBRefreshTokenRepository, error) {
	clientOptions := options.Client().ApplyURI(mongoURI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB!")

	return &MongoDBRefreshTokenRepository{
		client:     client,
		dbName:     dbName,
		collection: "refresh_tokens",
	}, nil
}

func (r *MongoDBRefreshTokenRepository) coll() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collection)
}

func (r *MongoDBRefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	filter := bson.M{"user_id": token.UserID, "token": token.Token}
	update := bson.M{"$setOnInsert": token}
	opts := options.Update().SetUpsert(true)

	_, err := r.coll().UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *MongoDBRefreshTokenRepository) Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	filter := bson.M{"user_id": userID, "token": token}
	count, err := r.coll().CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoDBRefreshTokenRepository) Remove(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	filter := bson.M{"user_id": userID, "token": token}

	err := r.coll().FindOneAndDelete(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MongoDBRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{"expires_at": bson.M{"$lte": now}}

	res, err := r.coll().DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoDBRefreshTokenRepository) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.client.Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting from MongoDB: %v", err)
	}
}

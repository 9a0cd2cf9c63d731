package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pricemind-sync-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBFailedRequestRepository implements FailedRequestRepository using
// MongoDB. entity_id values come from a counters collection.
type MongoDBFailedRequestRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
}

var _ FailedRequestRepository = (*MongoDBFailedRequestRepository)(nil)

// failedRequestDocument is the stored shape of a FailedRequestRecord.
type failedRequestDocument struct {
	EntityID      int64      `bson:"entity_id"`
	Endpoint      string     `bson:"endpoint"`
	Method        string     `bson:"method"`
	Headers       string     `bson:"headers"`
	Payload       string     `bson:"payload"`
	Error         string     `bson:"error"`
	RetryCount    int        `bson:"retry_count"`
	Status        int        `bson:"status"`
	NextAttemptAt *time.Time `bson:"next_attempt_at"`
	CreatedAt     time.Time  `bson:"created_at"`
}

// NewMongoDBFailedRequestRepository connects and ensures indexes.
func NewMongoDBFailedRequestRepository(uri, database, collection string) (*MongoDBFailedRequestRepository, error) {
	if uri == "" {
		return nil, errors.New("MONGODB_URI is required for the mongodb failure store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "entity_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("[MongoDB] Warning: failed to create indexes: %v", err)
	}

	log.Printf("[MongoDB] Connected to %s/%s", database, collection)
	return &MongoDBFailedRequestRepository{
		client:     client,
		collection: coll,
		counters:   db.Collection("counters"),
	}, nil
}

func (r *MongoDBFailedRequestRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": r.collection.Name()},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// InsertFailedRequest appends rec and sets its ID.
func (r *MongoDBFailedRequestRepository) InsertFailedRequest(ctx context.Context, rec *model.FailedRequestRecord) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return fmt.Errorf("failed to allocate failed request id: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	doc := failedRequestDocument{
		EntityID:      id,
		Endpoint:      rec.Endpoint,
		Method:        rec.Method,
		Headers:       rec.Headers,
		Payload:       rec.Payload,
		Error:         rec.Error,
		RetryCount:    rec.RetryCount,
		Status:        rec.Status,
		NextAttemptAt: rec.NextAttemptAt,
		CreatedAt:     rec.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert failed request: %w", err)
	}
	rec.ID = id
	return nil
}

// GetStats returns statistics about the failure collection.
func (r *MongoDBFailedRequestRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count failed requests: %w", err)
	}
	stats["total_failed"] = count

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var latest failedRequestDocument
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&latest); err == nil {
		stats["last_failure"] = latest.CreatedAt
	}

	return stats, nil
}

// Close disconnects from MongoDB.
func (r *MongoDBFailedRequestRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

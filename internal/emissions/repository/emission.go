package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/model"
)

const (
	CollectionName = "Emissions"
)

type EmissionRepository interface {
	Create(ctx context.Context, record *model.EmissionRecord) error
	// TotalSaved sums emission_saved across all records, in kg CO2e.
	TotalSaved(ctx context.Context) (float64, error)
}

type mongoEmissionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEmissionRepository(cfg *config.Config) EmissionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEmissionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoEmissionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoEmissionRepository) Create(ctx context.Context, record *model.EmissionRecord) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.RecordedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to create emission record: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEmissionRepository) TotalSaved(ctx context.Context) (float64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$emission_saved"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to aggregate emission savings: %w", err))
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to decode emission totals: %w", err))
	}
	if len(results) == 0 {
		return 0, nil
	}

	return results[0].Total, nil
}

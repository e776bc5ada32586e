package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/model"
)

const (
	CollectionName = "Vessels"
)

type VesselRepository interface {
	Create(ctx context.Context, vessel *model.VesselSignal) error
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.VesselSignal, error)
	Count(ctx context.Context) (int64, error)
	// FindActive returns the vessels that feed the congestion scorer:
	// scheduled and docked, delayed excluded.
	FindActive(ctx context.Context) ([]*model.VesselSignal, error)
}

type mongoVesselRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVesselRepository(cfg *config.Config) VesselRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVesselRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVesselRepository) Create(ctx context.Context, vessel *model.VesselSignal) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	vessel.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, vessel)
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to create vessel signal: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		vessel.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVesselRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.VesselSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "arrival_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to find vessels: %w", err))
	}
	defer cursor.Close(ctx)

	var vessels []*model.VesselSignal
	if err = cursor.All(ctx, &vessels); err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to decode vessels: %w", err))
	}

	return vessels, nil
}

func (r *mongoVesselRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to count vessels: %w", err))
	}

	return count, nil
}

func (r *mongoVesselRepository) FindActive(ctx context.Context) ([]*model.VesselSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"status": bson.M{"$in": bson.A{
		model.VesselStatusScheduled,
		model.VesselStatusDocked,
	}}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to find active vessels: %w", err))
	}
	defer cursor.Close(ctx)

	var vessels []*model.VesselSignal
	if err = cursor.All(ctx, &vessels); err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to decode active vessels: %w", err))
	}

	return vessels, nil
}

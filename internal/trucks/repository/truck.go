package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	truckerrors "portbuoy/internal/trucks/errors"
	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/model"
)

const (
	CollectionName = "Trucks"
)

type TruckRepository interface {
	Create(ctx context.Context, truck *model.Truck) error
	FindByID(ctx context.Context, id string) (*model.Truck, error)
	FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Truck, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Truck, error)
	Count(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, id string, updates *model.TruckUpdate) error
	Delete(ctx context.Context, id string) error
}

type mongoTruckRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTruckRepository(cfg *config.Config) TruckRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTruckRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTruckRepository) Create(ctx context.Context, truck *model.Truck) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	truck.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, truck)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return truckerrors.ErrDuplicatePlate
		}
		return mongotx.MapError(fmt.Errorf("failed to create truck: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		truck.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTruckRepository) FindByID(ctx context.Context, id string) (*model.Truck, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", truckerrors.ErrInvalidID, id)
	}

	var truck model.Truck
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&truck)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, truckerrors.ErrNotFound
		}
		return nil, mongotx.MapError(fmt.Errorf("failed to find truck: %w", err))
	}

	return &truck, nil
}

func (r *mongoTruckRepository) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Truck, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, limit, offset)
}

func (r *mongoTruckRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Truck, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoTruckRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Truck, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "number_plate", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to find trucks: %w", err))
	}
	defer cursor.Close(ctx)

	var trucks []*model.Truck
	if err = cursor.All(ctx, &trucks); err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to decode trucks: %w", err))
	}

	return trucks, nil
}

func (r *mongoTruckRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to count trucks: %w", err))
	}

	return count, nil
}

func (r *mongoTruckRepository) Update(ctx context.Context, id string, updates *model.TruckUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", truckerrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if updates.NumberPlate != "" {
		set["number_plate"] = updates.NumberPlate
	}
	if updates.FuelType != "" {
		set["fuel_type"] = updates.FuelType
	}
	if updates.AvgFuelBurnRate != nil {
		set["avg_fuel_burn_rate"] = *updates.AvgFuelBurnRate
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return truckerrors.ErrDuplicatePlate
		}
		return mongotx.MapError(fmt.Errorf("failed to update truck: %w", err))
	}
	if result.MatchedCount == 0 {
		return truckerrors.ErrNotFound
	}

	return nil
}

func (r *mongoTruckRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", truckerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to delete truck: %w", err))
	}
	if result.DeletedCount == 0 {
		return truckerrors.ErrNotFound
	}

	return nil
}

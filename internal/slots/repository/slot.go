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

	slotserrors "portbuoy/internal/slots/errors"
	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/model"
)

const (
	CollectionName = "Slots"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	FindByID(ctx context.Context, id string) (*model.Slot, error)
	FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Slot, error)
	CountUpcoming(ctx context.Context, from time.Time) (int64, error)
	// FindFirstAvailableAfter returns the earliest slot starting at or after t
	// with free capacity, or nil when none exists.
	FindFirstAvailableAfter(ctx context.Context, t time.Time) (*model.Slot, error)
	// AdjustBookedCount atomically moves BookedCount by delta and recomputes
	// CongestionScore in the same write. The filter refuses increments on a
	// full slot and decrements on an empty one.
	AdjustBookedCount(ctx context.Context, id string, delta int) (*model.Slot, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless a transaction session
// is already attached; session contexts must pass through unchanged.
func (r *mongoSlotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	slot.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	slot.CongestionScore = slot.FillRatio()

	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to create slot: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	var slot model.Slot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, mongotx.MapError(fmt.Errorf("failed to find slot: %w", err))
	}

	return &slot, nil
}

func (r *mongoSlotRepository) FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, upcomingFilter(from), opts)
	if err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to find slots: %w", err))
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to decode slots: %w", err))
	}

	return slots, nil
}

func (r *mongoSlotRepository) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, upcomingFilter(from))
	if err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to count slots: %w", err))
	}

	return count, nil
}

func (r *mongoSlotRepository) FindFirstAvailableAfter(ctx context.Context, t time.Time) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"start_time": bson.M{"$gte": t},
		"$expr":      bson.M{"$lt": bson.A{"$booked_count", "$max_trucks"}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "start_time", Value: 1}})

	var slot model.Slot
	err := r.collection.FindOne(ctx, filter, opts).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// no alternative currently available; not an error
			return nil, nil
		}
		return nil, mongotx.MapError(fmt.Errorf("failed to find alternate slot: %w", err))
	}

	return &slot, nil
}

func (r *mongoSlotRepository) AdjustBookedCount(ctx context.Context, id string, delta int) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if delta > 0 {
		filter["$expr"] = bson.M{"$lt": bson.A{"$booked_count", "$max_trucks"}}
	} else {
		filter["$expr"] = bson.M{"$gte": bson.A{bson.M{"$add": bson.A{"$booked_count", delta}}, 0}}
	}

	// Pipeline update: the count moves and the derived score is recomputed
	// from the moved count in one atomic write.
	update := bson.A{
		bson.M{"$set": bson.M{
			"booked_count": bson.M{"$add": bson.A{"$booked_count", delta}},
		}},
		bson.M{"$set": bson.M{
			"congestion_score": bson.M{"$divide": bson.A{"$booked_count", "$max_trucks"}},
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Slot
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classifyAdjustMiss(ctx, objectID, delta)
		}
		return nil, mongotx.MapError(fmt.Errorf("failed to adjust booked count: %w", err))
	}

	return &updated, nil
}

// classifyAdjustMiss distinguishes "slot missing" from "capacity bound hit"
// after a conditional update matched nothing.
func (r *mongoSlotRepository) classifyAdjustMiss(ctx context.Context, objectID primitive.ObjectID, delta int) error {
	err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return slotserrors.ErrNotFound
	}
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to classify conditional update miss: %w", err))
	}
	if delta > 0 {
		return slotserrors.ErrNoCapacity
	}
	return slotserrors.ErrCountFloor
}

func (r *mongoSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func upcomingFilter(from time.Time) bson.M {
	return bson.M{"start_time": bson.M{"$gte": from}}
}

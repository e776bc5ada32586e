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

	bookingerrors "portbuoy/internal/bookings/errors"
	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, filter BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter BookingFilter) (int64, error)
	// FindActiveByTruckAndSlot returns the non-cancelled booking for the pair,
	// or nil when the pair is free.
	FindActiveByTruckAndSlot(ctx context.Context, truckID, slotID string) (*model.Booking, error)
	// UpdateStatus transitions a booking only when it is not already in the
	// requested status; a no-op transition reports ErrStatusUnchanged.
	UpdateStatus(ctx context.Context, id, status string) error
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

// BookingFilter narrows list queries; zero values mean "any".
type BookingFilter struct {
	TruckID  string
	SlotID   string
	DriverID string
	Status   string
}

func (f BookingFilter) toBSON() bson.M {
	filter := bson.M{}
	if f.TruckID != "" {
		filter["truck_id"] = f.TruckID
	}
	if f.SlotID != "" {
		filter["slot_id"] = f.SlotID
	}
	if f.DriverID != "" {
		filter["driver_id"] = f.DriverID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to create booking: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, mongotx.MapError(fmt.Errorf("failed to find booking: %w", err))
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, filter BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to find bookings: %w", err))
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to decode bookings: %w", err))
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter BookingFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter.toBSON())
	if err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to count bookings: %w", err))
	}

	return count, nil
}

func (r *mongoBookingRepository) FindActiveByTruckAndSlot(ctx context.Context, truckID, slotID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"truck_id": truckID,
		"slot_id":  slotID,
		"status":   bson.M{"$ne": model.BookingStatusCancelled},
	}

	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongotx.MapError(fmt.Errorf("failed to find active booking: %w", err))
	}

	return &booking, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	// Conditional transition: a booking already in the target status matches
	// nothing, so a racing second transition can never apply twice even when
	// the driver retries the enclosing transaction.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": bson.M{"$ne": status}},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to update booking status: %w", err))
	}
	if result.MatchedCount == 0 {
		return r.classifyStatusMiss(ctx, objectID)
	}

	return nil
}

// classifyStatusMiss distinguishes a vanished booking from one that already
// carries the requested status.
func (r *mongoBookingRepository) classifyStatusMiss(ctx context.Context, objectID primitive.ObjectID) error {
	err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return bookingerrors.ErrNotFound
	}
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to classify status update miss: %w", err))
	}
	return bookingerrors.ErrStatusUnchanged
}

func (r *mongoBookingRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, createdBetweenFilter(from, to))
	if err != nil {
		return 0, mongotx.MapError(fmt.Errorf("failed to count bookings by window: %w", err))
	}

	return count, nil
}

func (r *mongoBookingRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, createdBetweenFilter(from, to))
	if err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to find bookings by window: %w", err))
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, mongotx.MapError(fmt.Errorf("failed to decode bookings: %w", err))
	}

	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func createdBetweenFilter(from, to time.Time) bson.M {
	return bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
}

package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "portbuoy/internal/bookings/errors"
	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/model"
)

const (
	LockCollectionName = "Slot_locks"
)

// SlotLockRepository serializes admissions per slot with an advisory lock
// document. A duplicate-key insert on the lock _id means another admission is
// in flight for the same slot; a TTL index on expires_at reaps locks
// abandoned by crashed processes.
type SlotLockRepository interface {
	Acquire(ctx context.Context, slotID string, ttl time.Duration) error
	Release(ctx context.Context, slotID string) error
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func lockID(slotID string) string {
	return "slot_lock_" + slotID
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, slotID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := model.SlotLock{
		ID:        lockID(slotID),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingerrors.ErrLockContention
		}
		return mongotx.MapError(fmt.Errorf("failed to acquire slot lock: %w", err))
	}

	return nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID(slotID)})
	if err != nil {
		return mongotx.MapError(fmt.Errorf("failed to release slot lock: %w", err))
	}

	return nil
}

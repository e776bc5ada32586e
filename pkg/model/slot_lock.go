package model

import "time"

// SlotLock is an advisory lock serializing admission against a single slot.
// The lock ID is derived from the slot ID, so two concurrent bookers of the
// same slot collide on the unique _id while different slots never contend.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

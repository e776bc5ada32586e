package model

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking ties a truck to a slot for a single gate admission.
// At most one non-cancelled booking may exist per (truck, slot) pair.
type Booking struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TruckID           string    `json:"truck_id" bson:"truck_id" validate:"required,mongodb"`
	SlotID            string    `json:"slot_id" bson:"slot_id" validate:"required,mongodb"`
	DriverID          string    `json:"driver_id" bson:"driver_id" validate:"required"`
	Status            string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	EstimatedIdleTime int       `json:"estimated_idle_time" bson:"estimated_idle_time" validate:"min=0"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// BookRequest is the admission request body: the slot comes from the URL,
// the requester from the identity headers.
type BookRequest struct {
	TruckID string `json:"truck_id" validate:"required,mongodb"`
}

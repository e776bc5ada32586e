package model

import (
	"time"
)

// Slot is a fixed gate arrival window with bounded truck capacity.
// CongestionScore is derived from BookedCount/MaxTrucks and is recomputed
// by the repository in the same write as every BookedCount change; callers
// never set it directly.
type Slot struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	StartTime       time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	MaxTrucks       int       `json:"max_trucks" bson:"max_trucks" validate:"required,min=1,max=500"`
	BookedCount     int       `json:"booked_count" bson:"booked_count" validate:"min=0"`
	CongestionScore float64   `json:"congestion_score" bson:"congestion_score" validate:"min=0,max=1"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (s *Slot) HasCapacity() bool {
	return s.BookedCount < s.MaxTrucks
}

// FillRatio is the persisted congestion component: booked trucks over capacity.
func (s *Slot) FillRatio() float64 {
	if s.MaxTrucks < 1 {
		return 0
	}
	return float64(s.BookedCount) / float64(s.MaxTrucks)
}

package model

import (
	"time"
)

// EmissionRecord captures the idle-time CO2 outcome of one confirmed booking:
// what the idle window is expected to produce, and what was saved against the
// worst-case baseline.
type EmissionRecord struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookingID string `json:"booking_id" bson:"booking_id" validate:"required,mongodb"`
	// IdleTime is the estimated idle window in minutes.
	IdleTime int `json:"idle_time" bson:"idle_time" validate:"min=0"`
	// EmissionProduced and EmissionSaved are kg CO2e.
	EmissionProduced float64   `json:"emission_produced" bson:"emission_produced" validate:"min=0"`
	EmissionSaved    float64   `json:"emission_saved" bson:"emission_saved" validate:"min=0"`
	RecordedAt       time.Time `json:"recorded_at" bson:"recorded_at" validate:"omitempty"`
}

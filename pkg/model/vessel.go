package model

import (
	"time"
)

const (
	VesselStatusScheduled = "scheduled"
	VesselStatusDelayed   = "delayed"
	VesselStatusDocked    = "docked"
)

// VesselSignal is read-only context for congestion prediction. Only
// scheduled and docked vessels contribute to the delay-risk factor.
type VesselSignal struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VesselName  string    `json:"vessel_name" bson:"vessel_name" validate:"required,min=2,max=100"`
	ArrivalTime time.Time `json:"arrival_time" bson:"arrival_time" validate:"required"`
	Berth       string    `json:"berth" bson:"berth" validate:"required,min=1,max=20"`
	// DelayRiskScore: 0 = low risk, 100 = high risk of delay.
	DelayRiskScore float64   `json:"delay_risk_score" bson:"delay_risk_score" validate:"min=0,max=100"`
	Status         string    `json:"status" bson:"status" validate:"required,oneof=scheduled delayed docked"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (v *VesselSignal) IsActive() bool {
	return v.Status == VesselStatusScheduled || v.Status == VesselStatusDocked
}

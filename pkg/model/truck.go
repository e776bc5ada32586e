package model

import (
	"time"
)

const (
	FuelTypeDiesel   = "diesel"
	FuelTypeElectric = "electric"
	FuelTypeLNG      = "LNG"
)

// Truck is an identity-registry record. The engine reads ownership for
// admission checks and fuel characteristics for emission estimates.
type Truck struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	NumberPlate string    `json:"number_plate" bson:"number_plate" validate:"required,min=2,max=20,number_plate"`
	FuelType    string    `json:"fuel_type" bson:"fuel_type" validate:"required,oneof=diesel electric LNG"`
	// AvgFuelBurnRate is liters per hour at idle.
	AvgFuelBurnRate float64   `json:"avg_fuel_burn_rate" bson:"avg_fuel_burn_rate" validate:"min=0"`
	OwnerID         string    `json:"owner_id" bson:"owner_id" validate:"required"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type TruckUpdate struct {
	NumberPlate     string   `json:"number_plate,omitempty" validate:"omitempty,min=2,max=20,number_plate"`
	FuelType        string   `json:"fuel_type,omitempty" validate:"omitempty,oneof=diesel electric LNG"`
	AvgFuelBurnRate *float64 `json:"avg_fuel_burn_rate,omitempty" validate:"omitempty,min=0"`
}

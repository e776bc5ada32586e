package congestion

import (
	"math"

	"portbuoy/pkg/model"
)

// Idle-time model: a fixed gate-processing floor plus up to an hour of
// congestion-proportional waiting.
const (
	baseIdleMinutes = 15
	maxExtraMinutes = 60
)

// Default emission constants, overridable per truck (see BurnRateForTruck
// and CO2PerLiterForFuel).
const (
	DefaultFuelBurnRatePerMin = 0.05 // liters per idle minute
	DefaultCO2PerLiterDiesel  = 2.68 // kg CO2 per liter
	DefaultCO2PerLiterLNG     = 2.75
)

// Idle minutes avoided versus the worst-case baseline, bucketed by level.
const (
	savedMinutesLow    = 45
	savedMinutesMedium = 20
	savedMinutesHigh   = 5
)

// EstimateIdleMinutes converts a [0,1] congestion score into expected gate
// idle minutes. Monotonic in the score; 0 maps to 15, 1 maps to 75.
func EstimateIdleMinutes(score float64) int {
	return int(math.Floor(baseIdleMinutes + clamp01(score)*maxExtraMinutes))
}

// SavedIdleMinutes is the idle time a booking at the given congestion level
// avoids compared to arriving blind at peak.
func SavedIdleMinutes(level Level) int {
	switch level {
	case LevelHigh:
		return savedMinutesHigh
	case LevelMedium:
		return savedMinutesMedium
	default:
		return savedMinutesLow
	}
}

// EstimateCO2Savings converts avoided idle minutes into kg CO2e, rounded to
// one decimal: savedMinutes * burnRate (L/min) * co2PerLiter (kg/L).
func EstimateCO2Savings(level Level, burnRatePerMin, co2PerLiter float64) float64 {
	saved := float64(SavedIdleMinutes(level)) * burnRatePerMin * co2PerLiter
	return round1(saved)
}

// EstimateCO2Produced is the expected emission of the idle window itself.
func EstimateCO2Produced(idleMinutes int, burnRatePerMin, co2PerLiter float64) float64 {
	return round1(float64(idleMinutes) * burnRatePerMin * co2PerLiter)
}

// BurnRateForTruck picks the idle burn rate in liters per minute. Trucks
// carry an average rate in liters per hour; zero falls back to the default.
func BurnRateForTruck(truck *model.Truck) float64 {
	if truck != nil && truck.AvgFuelBurnRate > 0 {
		return truck.AvgFuelBurnRate / 60
	}
	return DefaultFuelBurnRatePerMin
}

// CO2PerLiterForFuel selects the emission factor by fuel type. Electric
// trucks burn no fuel at idle.
func CO2PerLiterForFuel(fuelType string) float64 {
	switch fuelType {
	case model.FuelTypeElectric:
		return 0
	case model.FuelTypeLNG:
		return DefaultCO2PerLiterLNG
	default:
		return DefaultCO2PerLiterDiesel
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 trims a score for presentation; persisted values keep full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

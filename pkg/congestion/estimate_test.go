package congestion

import (
	"math"
	"testing"

	"portbuoy/pkg/model"
)

func TestEstimateIdleMinutes(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{0, 15},
		{0.25, 30},
		{0.5, 45},
		{1, 75},
		{-0.5, 15}, // score is clamped before use
		{1.5, 75},
	}

	for _, tt := range tests {
		if got := EstimateIdleMinutes(tt.score); got != tt.want {
			t.Errorf("EstimateIdleMinutes(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestEstimateIdleMinutes_Monotonic(t *testing.T) {
	prev := EstimateIdleMinutes(0)
	for s := 0.01; s <= 1.0; s += 0.01 {
		cur := EstimateIdleMinutes(s)
		if cur < prev {
			t.Fatalf("EstimateIdleMinutes(%v) = %d, less than previous %d", s, cur, prev)
		}
		prev = cur
	}
}

func TestSavedIdleMinutes(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{LevelLow, 45},
		{LevelMedium, 20},
		{LevelHigh, 5},
	}

	for _, tt := range tests {
		if got := SavedIdleMinutes(tt.level); got != tt.want {
			t.Errorf("SavedIdleMinutes(%s) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestEstimateCO2Savings_Defaults(t *testing.T) {
	tests := []struct {
		level Level
		want  float64
	}{
		{LevelLow, 6.0},    // 45 * 0.05 * 2.68 = 6.03 -> 6.0
		{LevelMedium, 2.7}, // 20 * 0.05 * 2.68 = 2.68 -> 2.7
		{LevelHigh, 0.7},   // 5 * 0.05 * 2.68 = 0.67 -> 0.7
	}

	for _, tt := range tests {
		got := EstimateCO2Savings(tt.level, DefaultFuelBurnRatePerMin, DefaultCO2PerLiterDiesel)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EstimateCO2Savings(%s) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestBurnRateForTruck(t *testing.T) {
	diesel := &model.Truck{FuelType: model.FuelTypeDiesel, AvgFuelBurnRate: 6} // 6 L/h
	if got := BurnRateForTruck(diesel); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("per-truck burn rate = %v, want 0.1 L/min", got)
	}

	unknown := &model.Truck{FuelType: model.FuelTypeDiesel}
	if got := BurnRateForTruck(unknown); got != DefaultFuelBurnRatePerMin {
		t.Errorf("zero-rate truck should fall back to default, got %v", got)
	}

	if got := BurnRateForTruck(nil); got != DefaultFuelBurnRatePerMin {
		t.Errorf("nil truck should fall back to default, got %v", got)
	}
}

func TestCO2PerLiterForFuel(t *testing.T) {
	tests := []struct {
		fuel string
		want float64
	}{
		{model.FuelTypeDiesel, DefaultCO2PerLiterDiesel},
		{model.FuelTypeLNG, DefaultCO2PerLiterLNG},
		{model.FuelTypeElectric, 0},
	}

	for _, tt := range tests {
		if got := CO2PerLiterForFuel(tt.fuel); got != tt.want {
			t.Errorf("CO2PerLiterForFuel(%s) = %v, want %v", tt.fuel, got, tt.want)
		}
	}
}

func TestEstimateCO2Savings_ElectricTruckSavesNothing(t *testing.T) {
	got := EstimateCO2Savings(LevelLow, DefaultFuelBurnRatePerMin, CO2PerLiterForFuel(model.FuelTypeElectric))
	if got != 0 {
		t.Errorf("electric savings = %v, want 0", got)
	}
}

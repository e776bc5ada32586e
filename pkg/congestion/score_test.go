package congestion

import (
	"errors"
	"math"
	"testing"
	"time"

	"portbuoy/pkg/model"
)

func signal(status string, risk float64) model.VesselSignal {
	return model.VesselSignal{
		VesselName:     "Test Vessel",
		ArrivalTime:    time.Now(),
		Berth:          "B1",
		DelayRiskScore: risk,
		Status:         status,
	}
}

func TestScore_ReferenceFixture(t *testing.T) {
	// booked 3/10, one scheduled vessel at risk 80, yard at 50%:
	// 0.6*0.3 + 0.3*0.5 + 0.1*0.8 = 0.41
	pred, err := Score(3, 10, []model.VesselSignal{signal(model.VesselStatusScheduled, 80)}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(pred.Score-0.41) > 1e-9 {
		t.Errorf("score = %v, want 0.41", pred.Score)
	}
	if pred.Level != LevelLow {
		t.Errorf("level = %s, want Low", pred.Level)
	}
	if math.Abs(pred.Factors.CapacityRatio-0.3) > 1e-9 {
		t.Errorf("capacity ratio = %v, want 0.3", pred.Factors.CapacityRatio)
	}
	if math.Abs(pred.Factors.VesselDelayRiskFactor-0.8) > 1e-9 {
		t.Errorf("delay risk factor = %v, want 0.8", pred.Factors.VesselDelayRiskFactor)
	}
}

func TestScore_Deterministic(t *testing.T) {
	signals := []model.VesselSignal{
		signal(model.VesselStatusScheduled, 80),
		signal(model.VesselStatusDocked, 40),
	}

	first, err := Score(7, 10, signals, 62.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Score(7, 10, signals, 62.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("iteration %d: prediction changed: %+v vs %+v", i, again, first)
		}
	}
}

func TestScore_DelayedVesselsExcluded(t *testing.T) {
	signals := []model.VesselSignal{
		signal(model.VesselStatusScheduled, 60),
		signal(model.VesselStatusDelayed, 100),
		signal(model.VesselStatusDocked, 20),
	}

	pred, err := Score(0, 10, signals, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// mean(60, 20)/100 = 0.4; the delayed vessel must not raise it
	if math.Abs(pred.Factors.VesselDelayRiskFactor-0.4) > 1e-9 {
		t.Errorf("delay risk factor = %v, want 0.4", pred.Factors.VesselDelayRiskFactor)
	}
}

func TestScore_NoActiveVessels(t *testing.T) {
	tests := []struct {
		name    string
		signals []model.VesselSignal
	}{
		{"nil slice", nil},
		{"empty slice", []model.VesselSignal{}},
		{"only delayed", []model.VesselSignal{signal(model.VesselStatusDelayed, 90)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Score(5, 10, tt.signals, 50)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pred.Factors.VesselDelayRiskFactor != 0 {
				t.Errorf("delay risk factor = %v, want 0", pred.Factors.VesselDelayRiskFactor)
			}
		})
	}
}

func TestScore_ClampedToUnitInterval(t *testing.T) {
	pred, err := Score(10, 10, []model.VesselSignal{signal(model.VesselStatusScheduled, 100)}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Score > 1 {
		t.Errorf("score = %v, must not exceed 1", pred.Score)
	}
	if pred.Level != LevelHigh {
		t.Errorf("level = %s, want High", pred.Level)
	}
}

func TestScore_InvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		maxTrucks int
		yardPct   float64
		wantErr   error
	}{
		{"zero capacity", 0, 50, ErrInvalidSlotConfig},
		{"negative capacity", -3, 50, ErrInvalidSlotConfig},
		{"yard below range", 10, -1, ErrInvalidYardUtilization},
		{"yard above range", 10, 100.5, ErrInvalidYardUtilization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Score(1, tt.maxTrucks, nil, tt.yardPct)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{0.49, LevelLow},
		{0.5, LevelMedium}, // exactly at the threshold is Medium, not Low
		{0.65, LevelMedium},
		{0.8, LevelMedium}, // High requires strictly above 0.8
		{0.81, LevelHigh},
		{1, LevelHigh},
	}

	for _, tt := range tests {
		if got := LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

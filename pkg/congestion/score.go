// Package congestion holds the pure scoring and estimation formulas of the
// slot allocation engine. Everything here is deterministic: yard utilization
// is an explicit input, never sampled inside the scorer.
package congestion

import (
	"errors"
	"math"

	"portbuoy/pkg/model"
)

type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Weights and level thresholds of the scoring formula. Fixed by design, not
// runtime-configurable.
const (
	weightCapacity  = 0.6
	weightYard      = 0.3
	weightDelayRisk = 0.1

	highThreshold   = 0.8
	mediumThreshold = 0.5
)

var (
	ErrInvalidSlotConfig      = errors.New("slot capacity must be at least 1")
	ErrInvalidYardUtilization = errors.New("yard utilization must be between 0 and 100")
)

// Factors are the individual inputs blended into the composite score.
type Factors struct {
	CapacityRatio         float64 `json:"capacity_ratio"`
	YardUtilizationPct    float64 `json:"yard_utilization_percentage"`
	VesselDelayRiskFactor float64 `json:"vessel_delay_risk_factor"`
}

type Prediction struct {
	Score   float64 `json:"score"`
	Level   Level   `json:"level"`
	Factors Factors `json:"factors"`
}

// Score computes the composite congestion prediction for a slot:
//
//	score = 0.6*bookedCount/maxTrucks + 0.3*yard/100 + 0.1*avgDelayRisk
//
// clamped to [0,1]. Only scheduled and docked vessels contribute to the
// average delay risk; with no active vessels the risk factor is zero.
func Score(bookedCount, maxTrucks int, signals []model.VesselSignal, yardUtilizationPct float64) (Prediction, error) {
	if maxTrucks < 1 {
		return Prediction{}, ErrInvalidSlotConfig
	}
	if yardUtilizationPct < 0 || yardUtilizationPct > 100 {
		return Prediction{}, ErrInvalidYardUtilization
	}

	capacityRatio := float64(bookedCount) / float64(maxTrucks)
	delayRisk := avgDelayRisk(signals)

	raw := capacityRatio*weightCapacity + (yardUtilizationPct/100)*weightYard + delayRisk*weightDelayRisk
	score := clamp01(raw)

	return Prediction{
		Score: score,
		Level: LevelForScore(score),
		Factors: Factors{
			CapacityRatio:         capacityRatio,
			YardUtilizationPct:    yardUtilizationPct,
			VesselDelayRiskFactor: delayRisk,
		},
	}, nil
}

// LevelForScore buckets a [0,1] score. A score of exactly 0.8 is Medium, not
// High; a score of exactly 0.5 is Medium, not Low.
func LevelForScore(score float64) Level {
	switch {
	case score > highThreshold:
		return LevelHigh
	case score >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// avgDelayRisk returns the mean delay-risk of active vessels, normalized to
// [0,1]. Delayed vessels are excluded.
func avgDelayRisk(signals []model.VesselSignal) float64 {
	var sum float64
	var n int
	for _, v := range signals {
		if !v.IsActive() {
			continue
		}
		sum += v.DelayRiskScore
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / (float64(n) * 100)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

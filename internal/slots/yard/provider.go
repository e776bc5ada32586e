package yard

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"portbuoy/pkg/config"
)

// Provider reports current yard occupancy as a percentage in [0,100].
type Provider interface {
	UtilizationPct(ctx context.Context) (float64, error)
}

// Static always reports a fixed, operator-configured utilization.
type Static struct {
	Pct float64
}

func (s *Static) UtilizationPct(ctx context.Context) (float64, error) {
	return s.Pct, nil
}

// Simulated produces a pseudo-random utilization between 40 and 90 percent,
// useful for demos and load tests without a real yard feed.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulated() *Simulated {
	return &Simulated{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *Simulated) UtilizationPct(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 40 + s.rng.Float64()*50, nil
}

func NewFromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.YardUtilizationMode {
	case config.YardModeStatic:
		return &Static{Pct: cfg.YardUtilizationPct}, nil
	case config.YardModeSimulated:
		return NewSimulated(), nil
	default:
		return nil, fmt.Errorf("unknown yard utilization mode: %s", cfg.YardUtilizationMode)
	}
}

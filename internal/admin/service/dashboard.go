package service

import (
	"context"
	"time"

	bookingrepo "portbuoy/internal/bookings/repository"
	emissionrepo "portbuoy/internal/emissions/repository"
	slotrepo "portbuoy/internal/slots/repository"
	"portbuoy/internal/slots/yard"
	truckrepo "portbuoy/internal/trucks/repository"
	vesselrepo "portbuoy/internal/vessels/repository"
	"portbuoy/pkg/config"
	"portbuoy/pkg/congestion"
	apperrors "portbuoy/pkg/errors"
	"portbuoy/pkg/model"
)

const trendSlots = 5

// Dashboard is the operator overview: today's volume, fleet size, average
// expected turnaround, cumulative emission savings and the near-term
// congestion outlook.
type Dashboard struct {
	TotalBookingsToday    int64            `json:"total_bookings_today"`
	ActiveTrucks          int64            `json:"active_trucks"`
	AvgTurnaroundTimeMins float64          `json:"avg_turnaround_time_mins"`
	TotalEmissionsSavedKg float64          `json:"total_emissions_saved_kg"`
	CongestionTrend       []CongestionSlot `json:"congestion_trend"`
}

type CongestionSlot struct {
	SlotID     string           `json:"slot_id"`
	StartTime  time.Time        `json:"start_time"`
	Score      float64          `json:"score"`
	Level      congestion.Level `json:"level"`
	BookedFree [2]int           `json:"booked_and_free"`
}

type DashboardService interface {
	Build(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	bookingRepo  bookingrepo.BookingRepository
	truckRepo    truckrepo.TruckRepository
	emissionRepo emissionrepo.EmissionRepository
	slotRepo     slotrepo.SlotRepository
	vesselRepo   vesselrepo.VesselRepository
	yard         yard.Provider
	cfg          *config.Config
}

func NewDashboardService(
	bookingRepo bookingrepo.BookingRepository,
	truckRepo truckrepo.TruckRepository,
	emissionRepo emissionrepo.EmissionRepository,
	slotRepo slotrepo.SlotRepository,
	vesselRepo vesselrepo.VesselRepository,
	yardProvider yard.Provider,
	cfg *config.Config,
) DashboardService {
	return &dashboardService{
		bookingRepo:  bookingRepo,
		truckRepo:    truckRepo,
		emissionRepo: emissionRepo,
		slotRepo:     slotRepo,
		vesselRepo:   vesselRepo,
		yard:         yardProvider,
		cfg:          cfg,
	}
}

func (s *dashboardService) Build(ctx context.Context) (*Dashboard, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	todays, err := s.bookingRepo.FindCreatedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		s.cfg.Log.Error("Failed to load today's bookings for dashboard", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard", err)
	}

	trucks, err := s.truckRepo.Count(ctx, "")
	if err != nil {
		s.cfg.Log.Error("Failed to count trucks for dashboard", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard", err)
	}

	saved, err := s.emissionRepo.TotalSaved(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to total emission savings for dashboard", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard", err)
	}

	trend, err := s.congestionTrend(ctx, now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalBookingsToday:    int64(len(todays)),
		ActiveTrucks:          trucks,
		AvgTurnaroundTimeMins: avgTurnaround(todays),
		TotalEmissionsSavedKg: congestion.Round2(saved),
		CongestionTrend:       trend,
	}, nil
}

// avgTurnaround is the mean estimated idle of today's non-cancelled bookings.
func avgTurnaround(bookings []*model.Booking) float64 {
	var sum, n int
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		sum += b.EstimatedIdleTime
		n++
	}
	if n == 0 {
		return 0
	}
	return congestion.Round2(float64(sum) / float64(n))
}

func (s *dashboardService) congestionTrend(ctx context.Context, now time.Time) ([]CongestionSlot, error) {
	slots, err := s.slotRepo.FindUpcoming(ctx, now, trendSlots, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load upcoming slots for dashboard", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard", err)
	}

	vessels, err := s.vesselRepo.FindActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load vessels for dashboard", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard", err)
	}
	signals := make([]model.VesselSignal, 0, len(vessels))
	for _, v := range vessels {
		signals = append(signals, *v)
	}

	yardPct, err := s.yard.UtilizationPct(ctx)
	if err != nil {
		return nil, apperrors.Unavailable("yard utilization feed")
	}

	trend := make([]CongestionSlot, 0, len(slots))
	for _, slot := range slots {
		prediction, err := congestion.Score(slot.BookedCount, slot.MaxTrucks, signals, yardPct)
		if err != nil {
			// A malformed slot must not sink the whole dashboard.
			s.cfg.Log.Warn("Skipping slot with invalid configuration in trend", "slot_id", slot.ID, "error", err)
			continue
		}
		trend = append(trend, CongestionSlot{
			SlotID:     slot.ID,
			StartTime:  slot.StartTime,
			Score:      congestion.Round2(prediction.Score),
			Level:      prediction.Level,
			BookedFree: [2]int{slot.BookedCount, slot.MaxTrucks - slot.BookedCount},
		})
	}

	return trend, nil
}

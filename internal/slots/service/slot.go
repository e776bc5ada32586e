package service

import (
	"context"
	"errors"
	"sync"
	"time"

	sloterrors "portbuoy/internal/slots/errors"
	"portbuoy/internal/slots/repository"
	"portbuoy/internal/slots/validator"
	"portbuoy/internal/slots/yard"
	vesselrepo "portbuoy/internal/vessels/repository"
	"portbuoy/pkg/config"
	"portbuoy/pkg/congestion"
	mongotx "portbuoy/pkg/db/mongo"
	apperrors "portbuoy/pkg/errors"
	"portbuoy/pkg/model"
)

// CongestionReport is the full prediction surface for one slot: the slot
// itself, the blended score and level, the contributing factors, and an
// alternate slot when the target is saturated.
type CongestionReport struct {
	TargetSlot           *model.Slot        `json:"target_slot"`
	CongestionScore      float64            `json:"congestion_score"`
	CongestionLevel      congestion.Level   `json:"congestion_level"`
	Factors              congestion.Factors `json:"factors"`
	RecommendedRetrySlot *model.Slot        `json:"recommended_retry_slot,omitempty"`
}

type SlotService interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	GetUpcoming(ctx context.Context, limit int, offset int64) ([]*model.Slot, int64, error)
	PredictCongestion(ctx context.Context, id string) (*CongestionReport, error)
	// RecommendAlternate finds the earliest slot after the rejected slot's end
	// with free capacity, or nil when none exists.
	RecommendAlternate(ctx context.Context, rejected *model.Slot) (*model.Slot, error)
}

type slotService struct {
	repo       repository.SlotRepository
	vesselRepo vesselrepo.VesselRepository
	yard       yard.Provider
	validator  *validator.SlotValidator
	cfg        *config.Config
}

func NewSlotService(
	repo repository.SlotRepository,
	vesselRepo vesselrepo.VesselRepository,
	yardProvider yard.Provider,
	validator *validator.SlotValidator,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:       repo,
		vesselRepo: vesselRepo,
		yard:       yardProvider,
		validator:  validator,
		cfg:        cfg,
	}
}

func (s *slotService) Create(ctx context.Context, slot *model.Slot) error {
	slot.BookedCount = 0
	slot.CongestionScore = 0

	if err := s.validator.Validate(slot); err != nil {
		s.cfg.Log.Warn("Slot validation failed",
			"start_time", slot.StartTime,
			"max_trucks", slot.MaxTrucks,
			"error", err,
		)
		return apperrors.InvalidSlotConfig(err.Error())
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		if errors.Is(err, mongotx.ErrUnavailable) {
			return apperrors.Unavailable("slot store")
		}
		s.cfg.Log.Error("Failed to create slot",
			"start_time", slot.StartTime,
			"error", err,
		)
		return apperrors.Internal("Failed to create slot", err)
	}

	s.cfg.Log.Info("Slot created successfully",
		"id", slot.ID,
		"start_time", slot.StartTime,
		"end_time", slot.EndTime,
		"max_trucks", slot.MaxTrucks,
	)
	return nil
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapSlotError(id, err, "Failed to get slot by ID")
	}

	return slot, nil
}

func (s *slotService) GetUpcoming(ctx context.Context, limit int, offset int64) ([]*model.Slot, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	now := time.Now().UTC()

	var (
		wg       sync.WaitGroup
		slots    []*model.Slot
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		slots, findErr = s.repo.FindUpcoming(ctx, now, limit, offset)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.CountUpcoming(ctx, now)
	}()
	wg.Wait()

	if findErr != nil {
		s.cfg.Log.Error("Failed to list upcoming slots", "error", findErr)
		return nil, 0, apperrors.Internal("Failed to retrieve slots", findErr)
	}
	if countErr != nil {
		s.cfg.Log.Error("Failed to count upcoming slots", "error", countErr)
		return nil, 0, apperrors.Internal("Failed to retrieve slots", countErr)
	}

	return slots, total, nil
}

// PredictCongestion computes the blended congestion score for a slot from its
// fill ratio, current yard utilization and active vessel delay risk. The
// rendered score is rounded to two decimals; level bucketing uses the exact
// value.
func (s *slotService) PredictCongestion(ctx context.Context, id string) (*CongestionReport, error) {
	slot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	vessels, err := s.vesselRepo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, mongotx.ErrUnavailable) {
			return nil, apperrors.Unavailable("vessel feed")
		}
		s.cfg.Log.Error("Failed to load vessel signals for prediction", "slot_id", id, "error", err)
		return nil, apperrors.Internal("Failed to compute congestion", err)
	}

	yardPct, err := s.yard.UtilizationPct(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to read yard utilization", "slot_id", id, "error", err)
		return nil, apperrors.Unavailable("yard utilization feed")
	}

	signals := make([]model.VesselSignal, 0, len(vessels))
	for _, v := range vessels {
		signals = append(signals, *v)
	}

	prediction, err := congestion.Score(slot.BookedCount, slot.MaxTrucks, signals, yardPct)
	if err != nil {
		if errors.Is(err, congestion.ErrInvalidSlotConfig) {
			return nil, apperrors.InvalidSlotConfig("Slot has invalid capacity configuration")
		}
		return nil, apperrors.Internal("Failed to compute congestion", err)
	}

	report := &CongestionReport{
		TargetSlot:      slot,
		CongestionScore: congestion.Round2(prediction.Score),
		CongestionLevel: prediction.Level,
		Factors:         prediction.Factors,
	}

	if report.CongestionLevel == congestion.LevelHigh || !slot.HasCapacity() {
		alternate, err := s.RecommendAlternate(ctx, slot)
		if err != nil {
			// A missing recommendation never fails the prediction.
			s.cfg.Log.Warn("Failed to find alternate slot", "slot_id", id, "error", err)
		} else {
			report.RecommendedRetrySlot = alternate
		}
	}

	s.cfg.Log.Info("Congestion predicted",
		"slot_id", id,
		"score", report.CongestionScore,
		"level", report.CongestionLevel,
	)
	return report, nil
}

func (s *slotService) RecommendAlternate(ctx context.Context, rejected *model.Slot) (*model.Slot, error) {
	alternate, err := s.repo.FindFirstAvailableAfter(ctx, rejected.EndTime)
	if err != nil {
		if errors.Is(err, mongotx.ErrUnavailable) {
			return nil, apperrors.Unavailable("slot store")
		}
		return nil, apperrors.Internal("Failed to find alternate slot", err)
	}
	return alternate, nil
}

func (s *slotService) mapSlotError(id string, err error, logMsg string) error {
	switch {
	case errors.Is(err, sloterrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", id)
	case errors.Is(err, sloterrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, mongotx.ErrUnavailable):
		return apperrors.Unavailable("slot store")
	default:
		s.cfg.Log.Error(logMsg, "id", id, "error", err)
		return apperrors.Internal("Failed to retrieve slot", err)
	}
}

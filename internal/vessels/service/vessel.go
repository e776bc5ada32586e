package service

import (
	"context"
	"sync"

	"portbuoy/internal/vessels/repository"
	"portbuoy/internal/vessels/validator"
	"portbuoy/pkg/config"
	apperrors "portbuoy/pkg/errors"
	"portbuoy/pkg/model"
	"portbuoy/pkg/sanitizer"
)

type VesselService interface {
	Create(ctx context.Context, vessel *model.VesselSignal) error
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.VesselSignal, int64, error)
}

type vesselService struct {
	repo      repository.VesselRepository
	validator *validator.VesselValidator
	cfg       *config.Config
}

func NewVesselService(
	repo repository.VesselRepository,
	validator *validator.VesselValidator,
	cfg *config.Config,
) VesselService {
	return &vesselService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *vesselService) Create(ctx context.Context, vessel *model.VesselSignal) error {
	vessel.VesselName = sanitizer.NormalizeVesselName(vessel.VesselName)
	vessel.Berth = sanitizer.NormalizeBerth(vessel.Berth)

	if err := s.validator.Validate(vessel); err != nil {
		s.cfg.Log.Warn("Vessel signal validation failed",
			"vessel_name", vessel.VesselName,
			"error", err,
		)
		return apperrors.Validation("Vessel signal validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, vessel); err != nil {
		s.cfg.Log.Error("Failed to create vessel signal",
			"vessel_name", vessel.VesselName,
			"error", err,
		)
		return apperrors.Internal("Failed to create vessel signal", err)
	}

	s.cfg.Log.Info("Vessel signal created successfully",
		"id", vessel.ID,
		"vessel_name", vessel.VesselName,
		"status", vessel.Status,
		"delay_risk_score", vessel.DelayRiskScore,
	)
	return nil
}

func (s *vesselService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.VesselSignal, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		wg       sync.WaitGroup
		vessels  []*model.VesselSignal
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vessels, findErr = s.repo.FindAll(ctx, limit, offset)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.Count(ctx)
	}()
	wg.Wait()

	if findErr != nil {
		s.cfg.Log.Error("Failed to list vessel signals", "error", findErr)
		return nil, 0, apperrors.Internal("Failed to retrieve vessel signals", findErr)
	}
	if countErr != nil {
		s.cfg.Log.Error("Failed to count vessel signals", "error", countErr)
		return nil, 0, apperrors.Internal("Failed to retrieve vessel signals", countErr)
	}

	return vessels, total, nil
}

package service

import (
	"context"
	"errors"
	"sync"

	truckerrors "portbuoy/internal/trucks/errors"
	"portbuoy/internal/trucks/repository"
	"portbuoy/internal/trucks/validator"
	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	apperrors "portbuoy/pkg/errors"
	"portbuoy/pkg/identity"
	"portbuoy/pkg/model"
	"portbuoy/pkg/sanitizer"
)

type TruckService interface {
	Register(ctx context.Context, truck *model.Truck, requester identity.User) error
	GetByID(ctx context.Context, id string, requester identity.User) (*model.Truck, error)
	// GetAll lists the requester's fleet; admins see every truck.
	GetAll(ctx context.Context, requester identity.User, limit int, offset int64) ([]*model.Truck, int64, error)
	Update(ctx context.Context, id string, updates *model.TruckUpdate, requester identity.User) error
	Delete(ctx context.Context, id string, requester identity.User) error
}

type truckService struct {
	repo      repository.TruckRepository
	validator *validator.TruckValidator
	cfg       *config.Config
}

func NewTruckService(
	repo repository.TruckRepository,
	validator *validator.TruckValidator,
	cfg *config.Config,
) TruckService {
	return &truckService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *truckService) Register(ctx context.Context, truck *model.Truck, requester identity.User) error {
	truck.NumberPlate = sanitizer.NormalizePlate(truck.NumberPlate)
	// Ownership comes from the verified identity, never the request body.
	truck.OwnerID = requester.ID

	if err := s.validator.Validate(truck); err != nil {
		s.cfg.Log.Warn("Truck validation failed",
			"number_plate", truck.NumberPlate,
			"error", err,
		)
		return apperrors.Validation("Truck validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, truck); err != nil {
		if errors.Is(err, truckerrors.ErrDuplicatePlate) {
			return apperrors.Conflict("Number plate is already registered")
		}
		if errors.Is(err, mongotx.ErrUnavailable) {
			return apperrors.Unavailable("truck registry")
		}
		s.cfg.Log.Error("Failed to register truck",
			"number_plate", truck.NumberPlate,
			"error", err,
		)
		return apperrors.Internal("Failed to register truck", err)
	}

	s.cfg.Log.Info("Truck registered successfully",
		"id", truck.ID,
		"number_plate", truck.NumberPlate,
		"fuel_type", truck.FuelType,
		"owner_id", truck.OwnerID,
	)
	return nil
}

func (s *truckService) GetByID(ctx context.Context, id string, requester identity.User) (*model.Truck, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Truck ID cannot be empty")
	}

	truck, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapTruckError(id, err)
	}

	if !requester.CanActFor(truck.OwnerID) {
		return nil, apperrors.Forbidden("You may only view your own trucks")
	}

	return truck, nil
}

func (s *truckService) GetAll(ctx context.Context, requester identity.User, limit int, offset int64) ([]*model.Truck, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	ownerFilter := requester.ID
	if requester.IsAdmin() {
		ownerFilter = ""
	}

	var (
		wg       sync.WaitGroup
		trucks   []*model.Truck
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if ownerFilter == "" {
			trucks, findErr = s.repo.FindAll(ctx, limit, offset)
		} else {
			trucks, findErr = s.repo.FindByOwner(ctx, ownerFilter, limit, offset)
		}
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.Count(ctx, ownerFilter)
	}()
	wg.Wait()

	if findErr != nil {
		s.cfg.Log.Error("Failed to list trucks", "error", findErr)
		return nil, 0, apperrors.Internal("Failed to retrieve trucks", findErr)
	}
	if countErr != nil {
		s.cfg.Log.Error("Failed to count trucks", "error", countErr)
		return nil, 0, apperrors.Internal("Failed to retrieve trucks", countErr)
	}

	return trucks, total, nil
}

func (s *truckService) Update(ctx context.Context, id string, updates *model.TruckUpdate, requester identity.User) error {
	if _, err := s.GetByID(ctx, id, requester); err != nil {
		return err
	}

	if updates.NumberPlate != "" {
		updates.NumberPlate = sanitizer.NormalizePlate(updates.NumberPlate)
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Truck update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, truckerrors.ErrDuplicatePlate) {
			return apperrors.Conflict("Number plate is already registered")
		}
		return s.mapTruckError(id, err)
	}

	s.cfg.Log.Info("Truck updated successfully", "id", id)
	return nil
}

func (s *truckService) Delete(ctx context.Context, id string, requester identity.User) error {
	if _, err := s.GetByID(ctx, id, requester); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapTruckError(id, err)
	}

	s.cfg.Log.Info("Truck deleted successfully", "id", id)
	return nil
}

func (s *truckService) mapTruckError(id string, err error) error {
	switch {
	case errors.Is(err, truckerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Truck", id)
	case errors.Is(err, truckerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid truck ID format")
	case errors.Is(err, mongotx.ErrUnavailable):
		return apperrors.Unavailable("truck registry")
	default:
		s.cfg.Log.Error("Truck repository operation failed", "id", id, "error", err)
		return apperrors.Internal("Failed to access truck registry", err)
	}
}

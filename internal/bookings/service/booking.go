package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bookingerrors "portbuoy/internal/bookings/errors"
	"portbuoy/internal/bookings/events"
	"portbuoy/internal/bookings/repository"
	"portbuoy/internal/bookings/validator"
	emissionrepo "portbuoy/internal/emissions/repository"
	sloterrors "portbuoy/internal/slots/errors"
	slotrepo "portbuoy/internal/slots/repository"
	truckerrors "portbuoy/internal/trucks/errors"
	truckrepo "portbuoy/internal/trucks/repository"
	"portbuoy/pkg/config"
	"portbuoy/pkg/congestion"
	mongotx "portbuoy/pkg/db/mongo"
	apperrors "portbuoy/pkg/errors"
	"portbuoy/pkg/identity"
	"portbuoy/pkg/model"
)

// AlternateRecommender finds a later slot with free capacity for saturated
// rejections. Implemented by the slot service.
type AlternateRecommender interface {
	RecommendAlternate(ctx context.Context, rejected *model.Slot) (*model.Slot, error)
}

// BookingResult is the admission outcome returned to the caller: the created
// booking plus its emission estimate.
type BookingResult struct {
	Booking  *model.Booking        `json:"booking"`
	Emission *model.EmissionRecord `json:"emission"`
}

type BookingService interface {
	// Book runs the admission pipeline for one truck against one slot.
	// Capacity is reserved and the booking created atomically; a saturated
	// slot is rejected with a retry recommendation when one exists.
	Book(ctx context.Context, slotID string, req *model.BookRequest, requester identity.User) (*BookingResult, error)
	Cancel(ctx context.Context, bookingID string, requester identity.User) (*model.Booking, error)
	GetByID(ctx context.Context, id string, requester identity.User) (*model.Booking, error)
	GetAll(ctx context.Context, requester identity.User, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	lockRepo     repository.SlotLockRepository
	slotRepo     slotrepo.SlotRepository
	truckRepo    truckrepo.TruckRepository
	emissionRepo emissionrepo.EmissionRepository
	recommender  AlternateRecommender
	publisher    *events.Publisher
	validator    *validator.BookingValidator
	cfg          *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	slotRepo slotrepo.SlotRepository,
	truckRepo truckrepo.TruckRepository,
	emissionRepo emissionrepo.EmissionRepository,
	recommender AlternateRecommender,
	publisher *events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:         repo,
		lockRepo:     lockRepo,
		slotRepo:     slotRepo,
		truckRepo:    truckRepo,
		emissionRepo: emissionRepo,
		recommender:  recommender,
		publisher:    publisher,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *bookingService) Book(ctx context.Context, slotID string, req *model.BookRequest, requester identity.User) (*BookingResult, error) {
	if slotID == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, apperrors.Validation("Booking request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// Serialize admissions per slot; different slots never contend.
	if err := s.lockRepo.Acquire(ctx, slotID, s.cfg.SlotLockTTL); err != nil {
		if errors.Is(err, bookingerrors.ErrLockContention) {
			return nil, apperrors.Conflict("Another booking for this slot is in progress, retry shortly")
		}
		if errors.Is(err, mongotx.ErrUnavailable) {
			return nil, apperrors.Unavailable("booking store")
		}
		s.cfg.Log.Error("Failed to acquire slot lock", "slot_id", slotID, "error", err)
		return nil, apperrors.Internal("Failed to process booking", err)
	}
	defer func() {
		if err := s.lockRepo.Release(context.WithoutCancel(ctx), slotID); err != nil {
			s.cfg.Log.Error("Failed to release slot lock", "slot_id", slotID, "error", err)
		}
	}()

	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		return nil, s.mapSlotError(slotID, err)
	}

	if !slot.HasCapacity() {
		return nil, s.saturatedError(ctx, slot)
	}

	truck, err := s.truckRepo.FindByID(ctx, req.TruckID)
	if err != nil {
		return nil, s.mapTruckError(req.TruckID, err)
	}

	if !requester.CanActFor(truck.OwnerID) {
		s.cfg.Log.Warn("Booking attempt by non-owner",
			"truck_id", truck.ID,
			"owner_id", truck.OwnerID,
			"requester_id", requester.ID,
		)
		return nil, apperrors.Forbidden("You may only book slots for your own trucks")
	}

	existing, err := s.repo.FindActiveByTruckAndSlot(ctx, req.TruckID, slotID)
	if err != nil {
		if errors.Is(err, mongotx.ErrUnavailable) {
			return nil, apperrors.Unavailable("booking store")
		}
		s.cfg.Log.Error("Failed to check for duplicate booking", "truck_id", req.TruckID, "slot_id", slotID, "error", err)
		return nil, apperrors.Internal("Failed to process booking", err)
	}
	if existing != nil {
		return nil, apperrors.DuplicateBooking(
			fmt.Sprintf("Truck already has an active booking for this slot (booking %s)", existing.ID),
		)
	}

	// Idle time comes from the slot's state before this admission takes its
	// place; the booker pays for the queue ahead, not for itself.
	idleMinutes := congestion.EstimateIdleMinutes(slot.CongestionScore)
	level := congestion.LevelForScore(slot.CongestionScore)
	burnRate := congestion.BurnRateForTruck(truck)
	co2PerLiter := congestion.CO2PerLiterForFuel(truck.FuelType)

	booking := &model.Booking{
		TruckID:           req.TruckID,
		SlotID:            slotID,
		DriverID:          requester.ID,
		Status:            model.BookingStatusConfirmed,
		EstimatedIdleTime: idleMinutes,
	}
	emission := &model.EmissionRecord{
		IdleTime:         idleMinutes,
		EmissionProduced: congestion.EstimateCO2Produced(idleMinutes, burnRate, co2PerLiter),
		EmissionSaved:    congestion.EstimateCO2Savings(level, burnRate, co2PerLiter),
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.slotRepo.AdjustBookedCount(txCtx, slotID, 1); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return err
		}
		emission.BookingID = booking.ID
		return s.emissionRepo.Create(txCtx, emission)
	})
	if err != nil {
		if errors.Is(err, sloterrors.ErrNoCapacity) {
			// Raced past the capacity check; the conditional write is the
			// final authority.
			return nil, s.saturatedError(ctx, slot)
		}
		if errors.Is(err, mongotx.ErrUnavailable) {
			return nil, apperrors.Unavailable("booking store")
		}
		s.cfg.Log.Error("Booking transaction failed",
			"truck_id", req.TruckID,
			"slot_id", slotID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.publisher.BookingConfirmed(ctx, booking, emission.EmissionSaved)

	s.cfg.Log.Info("Booking confirmed",
		"booking_id", booking.ID,
		"truck_id", booking.TruckID,
		"slot_id", booking.SlotID,
		"estimated_idle_minutes", booking.EstimatedIdleTime,
		"emission_saved_kg", emission.EmissionSaved,
	)
	return &BookingResult{Booking: booking, Emission: emission}, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID string, requester identity.User) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, bookingID, requester)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.BookingStatusCancelled {
		return nil, apperrors.Conflict("Booking is already cancelled")
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, bookingID, model.BookingStatusCancelled); err != nil {
			return err
		}
		_, err := s.slotRepo.AdjustBookedCount(txCtx, booking.SlotID, -1)
		if errors.Is(err, sloterrors.ErrCountFloor) {
			// Count already at zero; tolerate rather than strand the booking.
			s.cfg.Log.Warn("Cancel found slot count already at zero", "slot_id", booking.SlotID)
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, bookingerrors.ErrStatusUnchanged) {
			// Lost the race to another Cancel; the conditional transition
			// aborted before touching the count.
			return nil, apperrors.Conflict("Booking is already cancelled")
		}
		if errors.Is(err, mongotx.ErrUnavailable) {
			return nil, apperrors.Unavailable("booking store")
		}
		s.cfg.Log.Error("Cancellation transaction failed", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.BookingStatusCancelled
	s.publisher.BookingCancelled(ctx, booking)

	s.cfg.Log.Info("Booking cancelled",
		"booking_id", booking.ID,
		"truck_id", booking.TruckID,
		"slot_id", booking.SlotID,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string, requester identity.User) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingerrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Booking", id)
		case errors.Is(err, bookingerrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		case errors.Is(err, mongotx.ErrUnavailable):
			return nil, apperrors.Unavailable("booking store")
		default:
			s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to retrieve booking", err)
		}
	}

	if !requester.CanActFor(booking.DriverID) {
		return nil, apperrors.Forbidden("You may only view your own bookings")
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, requester identity.User, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	filter := repository.BookingFilter{}
	if !requester.IsAdmin() {
		filter.DriverID = requester.ID
	}

	var (
		wg       sync.WaitGroup
		bookings []*model.Booking
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		bookings, findErr = s.repo.FindAll(ctx, filter, limit, offset)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.Count(ctx, filter)
	}()
	wg.Wait()

	if findErr != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", findErr)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", findErr)
	}
	if countErr != nil {
		s.cfg.Log.Error("Failed to count bookings", "error", countErr)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", countErr)
	}

	return bookings, total, nil
}

// saturatedError builds the rejection for a full slot, attaching the earliest
// later slot with free capacity when one exists.
func (s *bookingService) saturatedError(ctx context.Context, slot *model.Slot) error {
	appErr := apperrors.Saturated("Slot is fully booked")

	alternate, err := s.recommender.RecommendAlternate(ctx, slot)
	if err != nil {
		s.cfg.Log.Warn("Failed to find alternate slot for saturated rejection", "slot_id", slot.ID, "error", err)
		return appErr
	}
	if alternate != nil {
		appErr = appErr.WithDetails(map[string]any{
			"recommended_retry_slot": alternate,
		})
	}
	return appErr
}

func (s *bookingService) mapSlotError(slotID string, err error) error {
	switch {
	case errors.Is(err, sloterrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", slotID)
	case errors.Is(err, sloterrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, mongotx.ErrUnavailable):
		return apperrors.Unavailable("slot store")
	default:
		s.cfg.Log.Error("Failed to load slot for booking", "slot_id", slotID, "error", err)
		return apperrors.Internal("Failed to process booking", err)
	}
}

func (s *bookingService) mapTruckError(truckID string, err error) error {
	switch {
	case errors.Is(err, truckerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Truck", truckID)
	case errors.Is(err, truckerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid truck ID format")
	case errors.Is(err, mongotx.ErrUnavailable):
		return apperrors.Unavailable("truck registry")
	default:
		s.cfg.Log.Error("Failed to load truck for booking", "truck_id", truckID, "error", err)
		return apperrors.Internal("Failed to process booking", err)
	}
}

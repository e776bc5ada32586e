package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingerrors "portbuoy/internal/bookings/errors"
	"portbuoy/internal/bookings/events"
	"portbuoy/internal/bookings/repository"
	"portbuoy/internal/bookings/validator"
	sloterrors "portbuoy/internal/slots/errors"
	truckerrors "portbuoy/internal/trucks/errors"
	"portbuoy/pkg/config"
	mongotx "portbuoy/pkg/db/mongo"
	apperrors "portbuoy/pkg/errors"
	"portbuoy/pkg/identity"
	kafka_config "portbuoy/pkg/kafka/config"
	"portbuoy/pkg/logger"
	"portbuoy/pkg/model"
)

const (
	testSlotID   = "507f1f77bcf86cd799439011"
	testSlot2ID  = "507f1f77bcf86cd799439012"
	testSlot3ID  = "507f1f77bcf86cd799439013"
	testSlot4ID  = "507f1f77bcf86cd799439014"
	testTruckID  = "507f1f77bcf86cd799439021"
	testOwnerID  = "driver-7"
	testBookID   = "507f1f77bcf86cd799439031"
	testAdminID  = "admin-1"
	testOtherID  = "driver-9"
	testPlateRef = "TRK1001"
)

type mockBookingRepository struct {
	mu                           sync.Mutex
	bookings                     []*model.Booking
	CreateFunc                   func(ctx context.Context, booking *model.Booking) error
	FindByIDFunc                 func(ctx context.Context, id string) (*model.Booking, error)
	FindAllFunc                  func(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	CountFunc                    func(ctx context.Context, filter repository.BookingFilter) (int64, error)
	FindActiveByTruckAndSlotFunc func(ctx context.Context, truckID, slotID string) (*model.Booking, error)
	UpdateStatusFunc             func(ctx context.Context, id, status string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, booking)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking.ID = testBookID
	m.bookings = append(m.bookings, booking)
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockBookingRepository) FindAll(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	return m.FindAllFunc(ctx, filter, limit, offset)
}

func (m *mockBookingRepository) Count(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	return m.CountFunc(ctx, filter)
}

func (m *mockBookingRepository) FindActiveByTruckAndSlot(ctx context.Context, truckID, slotID string) (*model.Booking, error) {
	if m.FindActiveByTruckAndSlotFunc != nil {
		return m.FindActiveByTruckAndSlotFunc(ctx, truckID, slotID)
	}
	return nil, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *mockBookingRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// memorySlotLockRepository mirrors the advisory lock semantics: one holder
// per slot, duplicate acquisition reports contention.
type memorySlotLockRepository struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

func newMemorySlotLockRepository() *memorySlotLockRepository {
	return &memorySlotLockRepository{locks: make(map[string]struct{})}
}

func (m *memorySlotLockRepository) Acquire(ctx context.Context, slotID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[slotID]; held {
		return bookingerrors.ErrLockContention
	}
	m.locks[slotID] = struct{}{}
	return nil
}

func (m *memorySlotLockRepository) Release(ctx context.Context, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, slotID)
	return nil
}

// memorySlotStore implements the conditional-increment semantics of the real
// repository over an in-memory slot, for concurrency tests.
type memorySlotStore struct {
	mu         sync.Mutex
	slot       *model.Slot
	alternates []*model.Slot
}

func (m *memorySlotStore) Create(ctx context.Context, slot *model.Slot) error { return nil }

func (m *memorySlotStore) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot == nil || m.slot.ID != id {
		return nil, sloterrors.ErrNotFound
	}
	copied := *m.slot
	return &copied, nil
}

func (m *memorySlotStore) FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Slot, error) {
	return nil, nil
}

func (m *memorySlotStore) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	return 0, nil
}

func (m *memorySlotStore) FindFirstAvailableAfter(ctx context.Context, t time.Time) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Slot
	for _, cand := range m.alternates {
		if cand.BookedCount >= cand.MaxTrucks || cand.StartTime.Before(t) {
			continue
		}
		if best == nil || cand.StartTime.Before(best.StartTime) {
			best = cand
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

func (m *memorySlotStore) AdjustBookedCount(ctx context.Context, id string, delta int) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot == nil || m.slot.ID != id {
		return nil, sloterrors.ErrNotFound
	}
	if delta > 0 && m.slot.BookedCount >= m.slot.MaxTrucks {
		return nil, sloterrors.ErrNoCapacity
	}
	if m.slot.BookedCount+delta < 0 {
		return nil, sloterrors.ErrCountFloor
	}
	m.slot.BookedCount += delta
	m.slot.CongestionScore = m.slot.FillRatio()
	copied := *m.slot
	return &copied, nil
}

func (m *memorySlotStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockTruckRepository struct {
	FindByIDFunc func(ctx context.Context, id string) (*model.Truck, error)
}

func (m *mockTruckRepository) Create(ctx context.Context, truck *model.Truck) error { return nil }

func (m *mockTruckRepository) FindByID(ctx context.Context, id string) (*model.Truck, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockTruckRepository) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Truck, error) {
	return nil, nil
}

func (m *mockTruckRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Truck, error) {
	return nil, nil
}

func (m *mockTruckRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	return 0, nil
}

func (m *mockTruckRepository) Update(ctx context.Context, id string, updates *model.TruckUpdate) error {
	return nil
}

func (m *mockTruckRepository) Delete(ctx context.Context, id string) error { return nil }

type mockEmissionRepository struct {
	mu      sync.Mutex
	records []*model.EmissionRecord
}

func (m *mockEmissionRepository) Create(ctx context.Context, record *model.EmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *mockEmissionRepository) TotalSaved(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, r := range m.records {
		total += r.EmissionSaved
	}
	return total, nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		SlotLockTTL: 10 * time.Second,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func noopPublisher(cfg *config.Config) *events.Publisher {
	return events.NewPublisher(&kafka_config.Config{Enabled: false}, cfg.Log)
}

type bookingTestEnv struct {
	svc       BookingService
	bookings  *mockBookingRepository
	slots     *memorySlotStore
	locks     *memorySlotLockRepository
	emissions *mockEmissionRepository
}

func newBookingTestEnv(t *testing.T, slot *model.Slot, next *model.Slot, truck *model.Truck) *bookingTestEnv {
	t.Helper()
	cfg := newTestConfig()

	bookings := &mockBookingRepository{}
	slots := &memorySlotStore{slot: slot}
	if next != nil {
		slots.alternates = append(slots.alternates, next)
	}
	locks := newMemorySlotLockRepository()
	emissions := &mockEmissionRepository{}
	trucks := &mockTruckRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Truck, error) {
			if truck == nil || truck.ID != id {
				return nil, truckerrors.ErrNotFound
			}
			return truck, nil
		},
	}

	svc := NewBookingService(
		bookings,
		locks,
		slots,
		trucks,
		emissions,
		&slotStoreRecommender{store: slots},
		noopPublisher(cfg),
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	return &bookingTestEnv{svc: svc, bookings: bookings, slots: slots, locks: locks, emissions: emissions}
}

// slotStoreRecommender adapts the in-memory store to the recommendation
// surface the booking service consumes.
type slotStoreRecommender struct {
	store *memorySlotStore
}

func (r *slotStoreRecommender) RecommendAlternate(ctx context.Context, rejected *model.Slot) (*model.Slot, error) {
	return r.store.FindFirstAvailableAfter(ctx, rejected.EndTime)
}

func testSlot(booked, maxTrucks int) *model.Slot {
	base := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	return &model.Slot{
		ID:              testSlotID,
		StartTime:       base,
		EndTime:         base.Add(time.Hour),
		MaxTrucks:       maxTrucks,
		BookedCount:     booked,
		CongestionScore: float64(booked) / float64(maxTrucks),
	}
}

func testTruck() *model.Truck {
	return &model.Truck{
		ID:              testTruckID,
		NumberPlate:     testPlateRef,
		FuelType:        model.FuelTypeDiesel,
		AvgFuelBurnRate: 3.0,
		OwnerID:         testOwnerID,
	}
}

func driver() identity.User {
	return identity.User{ID: testOwnerID, Role: identity.RoleDriver}
}

func TestBookSuccess(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, testTruck())

	result, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	if result.Booking.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed status, got %s", result.Booking.Status)
	}
	if result.Booking.DriverID != testOwnerID {
		t.Errorf("expected driver %s, got %s", testOwnerID, result.Booking.DriverID)
	}

	// Idle from the pre-admission score: floor(15 + 0.3*60) = 33.
	if result.Booking.EstimatedIdleTime != 33 {
		t.Errorf("expected idle 33 minutes, got %d", result.Booking.EstimatedIdleTime)
	}

	// Low congestion, 3 L/h diesel: 45 * 0.05 * 2.68 = 6.0 kg.
	if result.Emission.EmissionSaved != 6.0 {
		t.Errorf("expected 6.0 kg saved, got %v", result.Emission.EmissionSaved)
	}
	if result.Emission.BookingID != result.Booking.ID {
		t.Error("emission record must reference the created booking")
	}

	if env.slots.slot.BookedCount != 4 {
		t.Errorf("expected booked count 4 after admission, got %d", env.slots.slot.BookedCount)
	}
	if env.slots.slot.CongestionScore != 0.4 {
		t.Errorf("expected persisted score 0.4, got %v", env.slots.slot.CongestionScore)
	}

	if _, held := env.locks.locks[testSlotID]; held {
		t.Error("slot lock must be released after admission")
	}
}

func TestBookSaturatedSlotRejectedWithRecommendation(t *testing.T) {
	base := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	next := &model.Slot{
		ID:          testSlot2ID,
		StartTime:   base.Add(time.Hour),
		EndTime:     base.Add(2 * time.Hour),
		MaxTrucks:   10,
		BookedCount: 1,
	}
	env := newBookingTestEnv(t, testSlot(10, 10), next, testTruck())

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	if err == nil {
		t.Fatal("expected saturation rejection")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeSaturated {
		t.Fatalf("expected code %s, got %s", apperrors.CodeSaturated, appErr.Code)
	}

	recommended, ok := appErr.Details["recommended_retry_slot"].(*model.Slot)
	if !ok || recommended == nil {
		t.Fatal("saturated rejection must carry a retry recommendation")
	}
	if recommended.ID != testSlot2ID {
		t.Errorf("expected alternate %s, got %s", testSlot2ID, recommended.ID)
	}

	if env.slots.slot.BookedCount != 10 {
		t.Errorf("rejection must not change booked count, got %d", env.slots.slot.BookedCount)
	}
	if len(env.bookings.bookings) != 0 {
		t.Error("rejection must not create a booking")
	}
}

func TestBookSaturatedRecommendsEarliestLaterSlot(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newBookingTestEnv(t, nil, nil, testTruck())
	env.slots.slot = &model.Slot{
		ID:          testSlotID,
		StartTime:   base,
		EndTime:     base.Add(time.Hour),
		MaxTrucks:   10,
		BookedCount: 10,
	}
	env.slots.alternates = []*model.Slot{
		// Starts before the rejected window ends; never eligible.
		{ID: testSlot4ID, StartTime: base.Add(-time.Hour), EndTime: base, MaxTrucks: 10},
		// Free but later than the earliest eligible candidate.
		{ID: testSlot3ID, StartTime: base.Add(2 * time.Hour), EndTime: base.Add(3 * time.Hour), MaxTrucks: 10},
		{ID: testSlot2ID, StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour), MaxTrucks: 10, BookedCount: 5},
	}

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeSaturated {
		t.Fatalf("expected code %s, got %s", apperrors.CodeSaturated, appErr.Code)
	}

	recommended, ok := appErr.Details["recommended_retry_slot"].(*model.Slot)
	if !ok || recommended == nil {
		t.Fatal("saturated rejection must carry a retry recommendation")
	}
	if recommended.ID != testSlot2ID {
		t.Errorf("expected earliest-start alternate %s, got %s", testSlot2ID, recommended.ID)
	}
}

func TestBookDuplicateRejected(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, testTruck())
	env.bookings.FindActiveByTruckAndSlotFunc = func(ctx context.Context, truckID, slotID string) (*model.Booking, error) {
		return &model.Booking{ID: testBookID, TruckID: truckID, SlotID: slotID, Status: model.BookingStatusConfirmed}, nil
	}

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeDuplicate {
		t.Errorf("expected code %s, got %s", apperrors.CodeDuplicate, appErr.Code)
	}
	if env.slots.slot.BookedCount != 3 {
		t.Errorf("duplicate rejection must not change booked count, got %d", env.slots.slot.BookedCount)
	}
}

func TestBookCancelledBookingDoesNotBlockRebooking(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, testTruck())
	// Active lookup excludes cancelled bookings by contract; a nil result
	// means the pair is free to book again.
	env.bookings.FindActiveByTruckAndSlotFunc = func(ctx context.Context, truckID, slotID string) (*model.Booking, error) {
		return nil, nil
	}

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	if err != nil {
		t.Fatalf("Book() after cancellation error = %v", err)
	}
}

func TestBookTruckNotFound(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, nil)

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestBookSlotNotFound(t *testing.T) {
	env := newBookingTestEnv(t, nil, nil, testTruck())

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestBookNonOwnerForbidden(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, testTruck())

	stranger := identity.User{ID: testOtherID, Role: identity.RoleDriver}
	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, stranger)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
	if env.slots.slot.BookedCount != 3 {
		t.Errorf("forbidden rejection must not change booked count, got %d", env.slots.slot.BookedCount)
	}
}

func TestBookAdminMayBookForAnyTruck(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, testTruck())

	admin := identity.User{ID: testAdminID, Role: identity.RoleAdmin}
	result, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, admin)
	if err != nil {
		t.Fatalf("Book() as admin error = %v", err)
	}
	if result.Booking.DriverID != testAdminID {
		t.Errorf("expected booking recorded against requester %s, got %s", testAdminID, result.Booking.DriverID)
	}
}

func TestBookElectricTruckSavesNothing(t *testing.T) {
	truck := testTruck()
	truck.FuelType = model.FuelTypeElectric
	env := newBookingTestEnv(t, testSlot(3, 10), nil, truck)

	result, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if result.Emission.EmissionSaved != 0 {
		t.Errorf("electric truck must save 0 kg, got %v", result.Emission.EmissionSaved)
	}
	if result.Emission.EmissionProduced != 0 {
		t.Errorf("electric truck must produce 0 kg, got %v", result.Emission.EmissionProduced)
	}
}

// TestBookConcurrentLastSeat drives N admissions at a slot with one free
// place. Exactly one must win; the count must never exceed capacity.
func TestBookConcurrentLastSeat(t *testing.T) {
	const workers = 16
	env := newBookingTestEnv(t, testSlot(9, 10), nil, testTruck())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejects   int
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			rejects++
			appErr := apperrors.AsAppError(err)
			switch appErr.Code {
			case apperrors.CodeSaturated, apperrors.CodeConflict, apperrors.CodeDuplicate:
			default:
				t.Errorf("unexpected rejection code under contention: %s", appErr.Code)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful admission, got %d", successes)
	}
	if rejects != workers-1 {
		t.Errorf("expected %d rejections, got %d", workers-1, rejects)
	}
	if env.slots.slot.BookedCount != 10 {
		t.Errorf("booked count must equal capacity, got %d", env.slots.slot.BookedCount)
	}
	if env.slots.slot.BookedCount > env.slots.slot.MaxTrucks {
		t.Error("booked count must never exceed capacity")
	}
}

func TestCancelSuccess(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(4, 10), nil, testTruck())
	booking := &model.Booking{
		ID:       testBookID,
		TruckID:  testTruckID,
		SlotID:   testSlotID,
		DriverID: testOwnerID,
		Status:   model.BookingStatusConfirmed,
	}
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		copied := *booking
		return &copied, nil
	}
	env.bookings.UpdateStatusFunc = func(ctx context.Context, id, status string) error {
		booking.Status = status
		return nil
	}

	cancelled, err := env.svc.Cancel(context.Background(), testBookID, driver())
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.BookingStatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
	if env.slots.slot.BookedCount != 3 {
		t.Errorf("expected booked count released to 3, got %d", env.slots.slot.BookedCount)
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(4, 10), nil, testTruck())
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{
			ID:       testBookID,
			SlotID:   testSlotID,
			DriverID: testOwnerID,
			Status:   model.BookingStatusCancelled,
		}, nil
	}

	_, err := env.svc.Cancel(context.Background(), testBookID, driver())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if env.slots.slot.BookedCount != 4 {
		t.Errorf("double cancel must not release capacity again, got %d", env.slots.slot.BookedCount)
	}
}

func TestCancelConcurrentDoubleCancel(t *testing.T) {
	const workers = 8
	env := newBookingTestEnv(t, testSlot(4, 10), nil, testTruck())

	// Shared booking with the repository's conditional-transition contract:
	// only the first transition to a status matches, the rest report
	// ErrStatusUnchanged.
	var (
		stateMu sync.Mutex
		status  = model.BookingStatusConfirmed
	)
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		stateMu.Lock()
		defer stateMu.Unlock()
		return &model.Booking{
			ID:       testBookID,
			TruckID:  testTruckID,
			SlotID:   testSlotID,
			DriverID: testOwnerID,
			Status:   status,
		}, nil
	}
	env.bookings.UpdateStatusFunc = func(ctx context.Context, id, newStatus string) error {
		stateMu.Lock()
		defer stateMu.Unlock()
		if status == newStatus {
			return bookingerrors.ErrStatusUnchanged
		}
		status = newStatus
		return nil
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := env.svc.Cancel(context.Background(), testBookID, driver())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeConflict {
				t.Errorf("unexpected rejection code under contention: %s", appErr.Code)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful cancellation, got %d", successes)
	}
	if env.slots.slot.BookedCount != 3 {
		t.Errorf("one cancellation must release exactly one seat, got count %d", env.slots.slot.BookedCount)
	}
}

func TestCancelForeignBookingForbidden(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(4, 10), nil, testTruck())
	env.bookings.FindByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{
			ID:       testBookID,
			SlotID:   testSlotID,
			DriverID: testOwnerID,
			Status:   model.BookingStatusConfirmed,
		}, nil
	}

	stranger := identity.User{ID: testOtherID, Role: identity.RoleDriver}
	_, err := env.svc.Cancel(context.Background(), testBookID, stranger)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestBookStorageUnavailableNotSaturated(t *testing.T) {
	env := newBookingTestEnv(t, testSlot(3, 10), nil, testTruck())
	env.bookings.FindActiveByTruckAndSlotFunc = func(ctx context.Context, truckID, slotID string) (*model.Booking, error) {
		return nil, mongotx.ErrUnavailable
	}

	_, err := env.svc.Book(context.Background(), testSlotID, &model.BookRequest{TruckID: testTruckID}, driver())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeUnavailable, appErr.Code)
	}
	if appErr.StatusCode() == apperrors.Saturated("").StatusCode() {
		t.Error("unavailability must not share the saturation status code")
	}
}

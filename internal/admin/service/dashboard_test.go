package service

import (
	"context"
	"testing"
	"time"

	bookingrepo "portbuoy/internal/bookings/repository"
	"portbuoy/internal/slots/yard"
	"portbuoy/pkg/config"
	"portbuoy/pkg/congestion"
	mongotx "portbuoy/pkg/db/mongo"
	"portbuoy/pkg/logger"
	"portbuoy/pkg/model"
)

type stubBookingRepo struct {
	todays []*model.Booking
}

func (s *stubBookingRepo) Create(ctx context.Context, booking *model.Booking) error { return nil }
func (s *stubBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, nil
}
func (s *stubBookingRepo) FindAll(ctx context.Context, filter bookingrepo.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}
func (s *stubBookingRepo) Count(ctx context.Context, filter bookingrepo.BookingFilter) (int64, error) {
	return 0, nil
}
func (s *stubBookingRepo) FindActiveByTruckAndSlot(ctx context.Context, truckID, slotID string) (*model.Booking, error) {
	return nil, nil
}
func (s *stubBookingRepo) UpdateStatus(ctx context.Context, id, status string) error { return nil }
func (s *stubBookingRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return int64(len(s.todays)), nil
}
func (s *stubBookingRepo) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	return s.todays, nil
}
func (s *stubBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type stubTruckRepo struct {
	total int64
}

func (s *stubTruckRepo) Create(ctx context.Context, truck *model.Truck) error { return nil }
func (s *stubTruckRepo) FindByID(ctx context.Context, id string) (*model.Truck, error) {
	return nil, nil
}
func (s *stubTruckRepo) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Truck, error) {
	return nil, nil
}
func (s *stubTruckRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Truck, error) {
	return nil, nil
}
func (s *stubTruckRepo) Count(ctx context.Context, ownerID string) (int64, error) {
	return s.total, nil
}
func (s *stubTruckRepo) Update(ctx context.Context, id string, updates *model.TruckUpdate) error {
	return nil
}
func (s *stubTruckRepo) Delete(ctx context.Context, id string) error { return nil }

type stubEmissionRepo struct {
	saved float64
}

func (s *stubEmissionRepo) Create(ctx context.Context, record *model.EmissionRecord) error {
	return nil
}
func (s *stubEmissionRepo) TotalSaved(ctx context.Context) (float64, error) { return s.saved, nil }

type stubSlotRepo struct {
	upcoming []*model.Slot
}

func (s *stubSlotRepo) Create(ctx context.Context, slot *model.Slot) error { return nil }
func (s *stubSlotRepo) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	return nil, nil
}
func (s *stubSlotRepo) FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Slot, error) {
	if limit < len(s.upcoming) {
		return s.upcoming[:limit], nil
	}
	return s.upcoming, nil
}
func (s *stubSlotRepo) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	return int64(len(s.upcoming)), nil
}
func (s *stubSlotRepo) FindFirstAvailableAfter(ctx context.Context, t time.Time) (*model.Slot, error) {
	return nil, nil
}
func (s *stubSlotRepo) AdjustBookedCount(ctx context.Context, id string, delta int) (*model.Slot, error) {
	return nil, nil
}
func (s *stubSlotRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type stubVesselRepo struct {
	active []*model.VesselSignal
}

func (s *stubVesselRepo) Create(ctx context.Context, vessel *model.VesselSignal) error { return nil }
func (s *stubVesselRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.VesselSignal, error) {
	return nil, nil
}
func (s *stubVesselRepo) Count(ctx context.Context) (int64, error) { return 0, nil }
func (s *stubVesselRepo) FindActive(ctx context.Context) ([]*model.VesselSignal, error) {
	return s.active, nil
}

func TestDashboardBuild(t *testing.T) {
	base := time.Now().UTC().Add(time.Hour)
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}

	bookings := &stubBookingRepo{todays: []*model.Booking{
		{Status: model.BookingStatusConfirmed, EstimatedIdleTime: 30},
		{Status: model.BookingStatusConfirmed, EstimatedIdleTime: 50},
		{Status: model.BookingStatusCancelled, EstimatedIdleTime: 70},
	}}
	slots := &stubSlotRepo{upcoming: []*model.Slot{
		{ID: "a", StartTime: base, MaxTrucks: 10, BookedCount: 3},
		{ID: "b", StartTime: base.Add(time.Hour), MaxTrucks: 10, BookedCount: 9},
	}}
	vessels := &stubVesselRepo{active: []*model.VesselSignal{
		{VesselName: "Evergreen Star", Status: model.VesselStatusScheduled, DelayRiskScore: 80},
	}}

	svc := NewDashboardService(
		bookings,
		&stubTruckRepo{total: 50},
		&stubEmissionRepo{saved: 123.456},
		slots,
		vessels,
		&yard.Static{Pct: 50},
		cfg,
	)

	dashboard, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if dashboard.TotalBookingsToday != 3 {
		t.Errorf("expected 3 bookings today, got %d", dashboard.TotalBookingsToday)
	}
	if dashboard.ActiveTrucks != 50 {
		t.Errorf("expected 50 trucks, got %d", dashboard.ActiveTrucks)
	}
	// Cancelled bookings are excluded: (30+50)/2 = 40.
	if dashboard.AvgTurnaroundTimeMins != 40 {
		t.Errorf("expected avg turnaround 40, got %v", dashboard.AvgTurnaroundTimeMins)
	}
	if dashboard.TotalEmissionsSavedKg != 123.46 {
		t.Errorf("expected 123.46 kg saved, got %v", dashboard.TotalEmissionsSavedKg)
	}

	if len(dashboard.CongestionTrend) != 2 {
		t.Fatalf("expected 2 trend entries, got %d", len(dashboard.CongestionTrend))
	}
	// Slot a: 0.6*0.3 + 0.3*0.5 + 0.1*0.8 = 0.41 -> Low.
	if dashboard.CongestionTrend[0].Score != 0.41 {
		t.Errorf("expected trend score 0.41, got %v", dashboard.CongestionTrend[0].Score)
	}
	if dashboard.CongestionTrend[0].Level != congestion.LevelLow {
		t.Errorf("expected Low, got %s", dashboard.CongestionTrend[0].Level)
	}
	// Slot b: 0.6*0.9 + 0.15 + 0.08 = 0.77 -> Medium.
	if dashboard.CongestionTrend[1].Level != congestion.LevelMedium {
		t.Errorf("expected Medium, got %s", dashboard.CongestionTrend[1].Level)
	}
}

func TestDashboardEmptyDay(t *testing.T) {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	svc := NewDashboardService(
		&stubBookingRepo{},
		&stubTruckRepo{},
		&stubEmissionRepo{},
		&stubSlotRepo{},
		&stubVesselRepo{},
		&yard.Static{Pct: 50},
		cfg,
	)

	dashboard, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if dashboard.AvgTurnaroundTimeMins != 0 {
		t.Errorf("empty day must average to 0, got %v", dashboard.AvgTurnaroundTimeMins)
	}
	if len(dashboard.CongestionTrend) != 0 {
		t.Errorf("expected empty trend, got %d entries", len(dashboard.CongestionTrend))
	}
}

// Seeds a demo dataset: a day of hourly gate slots, a fleet of trucks and a
// handful of vessel signals to drive the congestion scorer.
package main

import (
	"context"
	"fmt"
	"time"

	slotrepo "portbuoy/internal/slots/repository"
	truckrepo "portbuoy/internal/trucks/repository"
	vesselrepo "portbuoy/internal/vessels/repository"
	"portbuoy/pkg/config"
	"portbuoy/pkg/model"
)

const (
	ServiceName = "seed"

	truckCount    = 50
	slotCount     = 20
	firstSlotHour = 6
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	seedTrucks(ctx, cfg)
	seedSlots(ctx, cfg)
	seedVessels(ctx, cfg)

	cfg.Log.Info("Seeding completed")
}

func seedTrucks(ctx context.Context, cfg *config.Config) {
	repo := truckrepo.NewMongoTruckRepository(cfg)

	fuelTypes := []string{model.FuelTypeDiesel, model.FuelTypeDiesel, model.FuelTypeLNG, model.FuelTypeElectric}
	burnRates := []float64{3.0, 3.6, 2.4, 0}

	var created int
	for i := 0; i < truckCount; i++ {
		idx := i % len(fuelTypes)
		truck := &model.Truck{
			NumberPlate:     fmt.Sprintf("TRK%d", 1001+i),
			FuelType:        fuelTypes[idx],
			AvgFuelBurnRate: burnRates[idx],
			OwnerID:         fmt.Sprintf("driver-%d", (i%10)+1),
		}
		if err := repo.Create(ctx, truck); err != nil {
			// Re-running the seeder trips the unique plate index; skip.
			cfg.Log.Warn("Skipping truck", "number_plate", truck.NumberPlate, "error", err)
			continue
		}
		created++
	}

	cfg.Log.Info("Seeded trucks", "created", created, "requested", truckCount)
}

func seedSlots(ctx context.Context, cfg *config.Config) {
	repo := slotrepo.NewMongoSlotRepository(cfg)

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), firstSlotHour, 0, 0, 0, time.UTC)
	if dayStart.Before(now) {
		dayStart = dayStart.Add(24 * time.Hour)
	}

	var created int
	for i := 0; i < slotCount; i++ {
		start := dayStart.Add(time.Duration(i) * time.Hour)
		slot := &model.Slot{
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			MaxTrucks: 10,
		}
		if err := repo.Create(ctx, slot); err != nil {
			cfg.Log.Warn("Skipping slot", "start_time", slot.StartTime, "error", err)
			continue
		}
		created++
	}

	cfg.Log.Info("Seeded slots", "created", created, "requested", slotCount, "first_start", dayStart)
}

func seedVessels(ctx context.Context, cfg *config.Config) {
	repo := vesselrepo.NewMongoVesselRepository(cfg)

	now := time.Now().UTC()
	vessels := []*model.VesselSignal{
		{
			VesselName:     "Evergreen Star",
			ArrivalTime:    now.Add(6 * time.Hour),
			Berth:          "B1",
			DelayRiskScore: 80,
			Status:         model.VesselStatusScheduled,
		},
		{
			VesselName:     "Baltic Trader",
			ArrivalTime:    now.Add(-2 * time.Hour),
			Berth:          "B2",
			DelayRiskScore: 35,
			Status:         model.VesselStatusDocked,
		},
		{
			VesselName:     "Pacific Dawn",
			ArrivalTime:    now.Add(12 * time.Hour),
			Berth:          "B3",
			DelayRiskScore: 60,
			Status:         model.VesselStatusDelayed,
		},
	}

	var created int
	for _, vessel := range vessels {
		if err := repo.Create(ctx, vessel); err != nil {
			cfg.Log.Warn("Skipping vessel", "vessel_name", vessel.VesselName, "error", err)
			continue
		}
		created++
	}

	cfg.Log.Info("Seeded vessels", "created", created)
}

package main

import (
	adminhandler "portbuoy/internal/admin/handler"
	adminservice "portbuoy/internal/admin/service"
	bookingrepo "portbuoy/internal/bookings/repository"
	emissionrepo "portbuoy/internal/emissions/repository"
	"portbuoy/internal/slots/handler"
	"portbuoy/internal/slots/repository"
	"portbuoy/internal/slots/service"
	"portbuoy/internal/slots/validator"
	"portbuoy/internal/slots/yard"
	truckrepo "portbuoy/internal/trucks/repository"
	vesselhandler "portbuoy/internal/vessels/handler"
	vesselrepo "portbuoy/internal/vessels/repository"
	vesselservice "portbuoy/internal/vessels/service"
	vesselvalidator "portbuoy/internal/vessels/validator"
	"portbuoy/pkg/app"
	"portbuoy/pkg/config"
	"portbuoy/pkg/contracts"
)

const ServiceName = "slots"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Slots service")
	handlers := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config) []contracts.Handler {
	yardProvider, err := yard.NewFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to configure yard utilization provider", "error", err)
	}

	slotRepo := repository.NewMongoSlotRepository(cfg)
	vesselRepository := vesselrepo.NewMongoVesselRepository(cfg)

	slotService := service.NewSlotService(
		slotRepo,
		vesselRepository,
		yardProvider,
		validator.NewSlotValidator(cfg.Log),
		cfg,
	)
	vesselService := vesselservice.NewVesselService(
		vesselRepository,
		vesselvalidator.NewVesselValidator(cfg.Log),
		cfg,
	)
	dashboardService := adminservice.NewDashboardService(
		bookingrepo.NewMongoBookingRepository(cfg),
		truckrepo.NewMongoTruckRepository(cfg),
		emissionrepo.NewMongoEmissionRepository(cfg),
		slotRepo,
		vesselRepository,
		yardProvider,
		cfg,
	)

	cfg.Log.Info("Slots service initialized",
		"database", cfg.MongoDatabaseName,
		"yard_mode", cfg.YardUtilizationMode,
	)
	return []contracts.Handler{
		handler.NewSlotHandler(slotService, cfg.Log),
		vesselhandler.NewVesselHandler(vesselService, cfg.Log),
		adminhandler.NewDashboardHandler(dashboardService, cfg.Log),
	}
}

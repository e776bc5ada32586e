package main

import (
	"portbuoy/internal/bookings/events"
	"portbuoy/internal/bookings/handler"
	"portbuoy/internal/bookings/repository"
	"portbuoy/internal/bookings/service"
	"portbuoy/internal/bookings/validator"
	emissionrepo "portbuoy/internal/emissions/repository"
	slotrepo "portbuoy/internal/slots/repository"
	slotservice "portbuoy/internal/slots/service"
	slotvalidator "portbuoy/internal/slots/validator"
	"portbuoy/internal/slots/yard"
	truckrepo "portbuoy/internal/trucks/repository"
	vesselrepo "portbuoy/internal/vessels/repository"
	"portbuoy/pkg/app"
	"portbuoy/pkg/config"
	kafka_config "portbuoy/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	bookingService, publisher := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, *events.Publisher) {
	yardProvider, err := yard.NewFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to configure yard utilization provider", "error", err)
	}

	slotRepository := slotrepo.NewMongoSlotRepository(cfg)
	vesselRepository := vesselrepo.NewMongoVesselRepository(cfg)

	// The slot service doubles as the alternate-slot recommender here.
	slotService := slotservice.NewSlotService(
		slotRepository,
		vesselRepository,
		yardProvider,
		slotvalidator.NewSlotValidator(cfg.Log),
		cfg,
	)

	publisher := events.NewPublisher(kafka_config.Load(), cfg.Log)

	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewMongoSlotLockRepository(cfg),
		slotRepository,
		truckrepo.NewMongoTruckRepository(cfg),
		emissionrepo.NewMongoEmissionRepository(cfg),
		slotService,
		publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Bookings service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, publisher
}

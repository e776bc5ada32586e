package main

import (
	"portbuoy/internal/trucks/handler"
	"portbuoy/internal/trucks/repository"
	"portbuoy/internal/trucks/service"
	"portbuoy/internal/trucks/validator"
	"portbuoy/pkg/app"
	"portbuoy/pkg/config"
)

const ServiceName = "trucks"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Trucks service")
	truckService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTruckHandler(truckService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.TruckService {
	truckService := service.NewTruckService(
		repository.NewMongoTruckRepository(cfg),
		validator.NewTruckValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Trucks service initialized", "database", cfg.MongoDatabaseName)
	return truckService
}

package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"shelfstock/internal/caching"
	"shelfstock/internal/config"
	"shelfstock/internal/handlers"
	"shelfstock/internal/jobs/background"
	"shelfstock/internal/middleware"
	"shelfstock/internal/repositories"
	"shelfstock/internal/services"
	"shelfstock/pkg/database"
	"shelfstock/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("shelfstock", true)
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init("shelfstock", cfg.Development)

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	objectStore, err := services.NewObjectStore(cfg.Archive.Endpoint, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.UseSSL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object store")
	}

	// Repositories
	locationRepo := repositories.NewLocationRepository(pool)
	stockRepo := repositories.NewStockRepository(pool)
	consumableRepo := repositories.NewConsumableStockRepository(pool)
	movementRepo := repositories.NewMovementRepository(pool)
	warehouseRepo := repositories.NewWarehouseRepository(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Services
	availabilitySvc := services.NewAvailabilityService(pool, stockRepo, locationRepo, warehouseRepo)
	ledgerSvc := services.NewLedgerService(pool, stockRepo, consumableRepo, locationRepo, movementRepo, availabilitySvc, cacheSvc)
	transferSvc := services.NewTransferService(pool, stockRepo, locationRepo, movementRepo, availabilitySvc, cacheSvc)
	locationSvc := services.NewLocationService(locationRepo, warehouseRepo, cacheSvc)
	movementSvc := services.NewMovementService(movementRepo)
	archiveSvc := services.NewArchiveService(movementRepo, objectStore, cfg.Archive.Bucket)

	// Handlers
	locationHandlers := handlers.NewLocationHandlers(locationSvc)
	stockHandlers := handlers.NewStockHandlers(ledgerSvc)
	transferHandlers := handlers.NewTransferHandlers(transferSvc)
	movementHandlers := handlers.NewMovementHandlers(movementSvc)
	availabilityHandlers := handlers.NewAvailabilityHandlers(availabilitySvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Background jobs
	scheduler, err := background.NewJobScheduler(availabilitySvc, archiveSvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create job scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)

	v1 := e.Group("/v1", middleware.VersionHeader("v1"))

	// Location tree
	v1.POST("/locations", locationHandlers.CreateLocation)
	v1.GET("/locations/:id", locationHandlers.GetLocation)
	v1.PUT("/locations/:id", locationHandlers.UpdateLocation)
	v1.DELETE("/locations/:id", locationHandlers.DeleteLocation)
	v1.GET("/warehouses/:id/locations/tree", locationHandlers.GetLocationTree)

	// Stock ledger
	v1.GET("/locations/:id/stock", stockHandlers.GetLocationStock)
	v1.GET("/locations/:id/consumable-stock", stockHandlers.GetLocationConsumableStock)
	v1.POST("/stock/add", stockHandlers.AddStock)
	v1.POST("/stock/remove", stockHandlers.RemoveStock)
	v1.POST("/consumable-stock/add", stockHandlers.AddConsumableStock)
	v1.POST("/consumable-stock/remove", stockHandlers.RemoveConsumableStock)
	v1.POST("/consumable-stock/reserve", stockHandlers.ReserveConsumable)
	v1.POST("/consumable-stock/release", stockHandlers.ReleaseConsumable)
	v1.GET("/products/:id/total-stock", stockHandlers.GetProductTotalStock)
	v1.GET("/consumables/:id/total-stock", stockHandlers.GetConsumableTotalStock)

	// Transfers
	v1.POST("/transfers", transferHandlers.Transfer)
	v1.POST("/transfers/history", transferHandlers.TransferWithHistory)
	v1.POST("/stock/remove-with-history", transferHandlers.RemoveStockWithHistory)

	// Movement log
	v1.GET("/movements", movementHandlers.ListMovements)

	// Availability
	v1.POST("/availability/sync-all", availabilityHandlers.SyncAll)

	logger.Info().Str("port", cfg.Port).Msg("shelfstock server starting")
	if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

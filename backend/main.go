package main

import (
	"context"
	"log"

	"classmarket/backend/cache"
	"classmarket/backend/config"
	"classmarket/backend/middleware"
	"classmarket/backend/models"
	"classmarket/backend/routes"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		logger.Fatal("Error migrating database", zap.Error(err))
	}
	if err := models.SeedLookups(db); err != nil {
		logger.Fatal("Error seeding lookup tables", zap.Error(err))
	}

	// Media relay
	relay, closeRelay := newRelay(cfg, logger)
	defer closeRelay()

	// Lookup cache
	lookups := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.LookupCacheTTL, logger)
	if err := lookups.Ping(context.Background()); err != nil {
		logger.Warn("redis unavailable, lookup tables will be read from the database", zap.Error(err))
	}
	defer lookups.Close()
	// Seeding may have changed the lookup tables; drop what redis still holds.
	lookups.Invalidate(context.Background(), cache.LookupKeys...)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		BodyLimit:   cfg.BodyLimitMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, routes.Deps{Relay: relay, Cache: lookups, Log: logger})

	// Start server
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// newRelay picks the media backend from MEDIA_DRIVER and wraps it so images
// are downscaled before upload.
func newRelay(cfg *config.Config, logger *zap.Logger) (storage.Relay, func()) {
	if cfg.MediaDriver == "gcs" {
		gcs, err := storage.NewGCSRelay(context.Background(), cfg.MediaBucket, cfg.MediaBaseURL, cfg.GCSCredentialsFile, logger)
		if err != nil {
			logger.Fatal("Error initializing media relay", zap.Error(err))
		}
		return storage.WithImageFitting(gcs, cfg.ImageMaxWidth, cfg.ImageMaxHeight), func() { _ = gcs.Close() }
	}
	logger.Warn("using in-memory media relay; uploads are lost on restart")
	memory := storage.NewMemoryRelay(cfg.MediaBaseURL)
	return storage.WithImageFitting(memory, cfg.ImageMaxWidth, cfg.ImageMaxHeight), func() {}
}

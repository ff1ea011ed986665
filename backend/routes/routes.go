package routes

import (
	"time"

	"classmarket/backend/cache"
	"classmarket/backend/config"
	"classmarket/backend/controllers"
	"classmarket/backend/middleware"
	"classmarket/backend/repository"
	"classmarket/backend/services"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators shared by the controllers.
type Deps struct {
	Relay storage.Relay
	Cache *cache.LookupCache
	Log   *zap.Logger
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Deps) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	catalog := repository.NewCatalogRepository(db, deps.Cache)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)
	creatorMiddleware := middleware.CreatorMiddleware(db)
	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return utils.ErrorCode(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS")
		},
	})

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, log)
	app.Post("/api/auth/register", authLimiter, authController.Register)
	app.Post("/api/auth/login", authLimiter, authController.Login)

	// User routes
	userController := controllers.NewUserController(db, cfg, deps.Relay)
	user := app.Group("/api/user", authMiddleware)
	user.Get("/profile", userController.GetProfile)
	user.Put("/profile", userController.UpdateProfile)
	user.Get("/coupons", userController.GetCoupons)
	user.Get("/likes", userController.GetLikedProducts)
	user.Get("/recent", userController.GetRecentlyViewed)
	user.Get("/products", userController.GetPurchasedProducts)

	// Overview routes
	overviewController := controllers.NewOverviewController(db, cfg, catalog, deps.Relay, log)
	app.Get("/api/overview", overviewController.GetOverview)
	app.Get("/api/overview/lookups", overviewController.GetLookups)

	// Product routes
	productController := controllers.NewProductController(db, cfg, catalog, deps.Relay, log)
	communityController := controllers.NewCommunityController(db, cfg, deps.Relay)
	orderController := controllers.NewOrderController(db, cfg, services.NewCheckout(db, log), log)
	progressController := controllers.NewProgressController(db, cfg)

	app.Get("/api/products", productController.SearchProducts)
	app.Get("/api/products/:id", optionalAuth, productController.GetProduct)

	// Auth per route: the group prefix also matches the anonymous detail route.
	products := app.Group("/api/products/:id")
	products.Post("/like", authMiddleware, productController.ToggleLike)
	products.Get("/communities", authMiddleware, communityController.GetPosts)
	products.Post("/communities", authMiddleware, communityController.AddPost)
	products.Get("/order", authMiddleware, orderController.GetCheckout)
	products.Post("/order", authMiddleware, orderController.PlaceOrder)
	products.Get("/progress", authMiddleware, progressController.GetProductProgress)
	products.Post("/lectures/:lectureId/progress", authMiddleware, progressController.CompleteLecture)

	// Community routes
	communities := app.Group("/api/communities/:id", authMiddleware)
	communities.Post("/comments", communityController.AddComment)
	communities.Post("/like", communityController.ToggleLike)

	// Creator routes
	statsController := controllers.NewStatsController(db, cfg)
	app.Get("/api/creator/stats", authMiddleware, creatorMiddleware, statsController.GetCreatorStats)

	creatorController := controllers.NewCreatorController(cfg,
		services.NewWizard(db, catalog, deps.Relay, log),
		services.NewPromoter(db, deps.Relay, log),
		log)
	creator := app.Group("/api/creator/:draftId", authMiddleware)
	creator.Get("/first", creatorController.GetBasicInfo)
	creator.Post("/first", creatorController.SaveBasicInfo)
	creator.Get("/second", creatorController.GetCurriculum)
	creator.Post("/second", creatorController.SaveCurriculum)
	creator.Get("/third", creatorController.GetLectureContents)
	creator.Post("/third", creatorController.SaveLectureContents)
	creator.Get("/fourth", creatorController.GetKits)
	creator.Post("/fourth", creatorController.SaveKits)
	creator.Post("/create", creatorController.Promote)
}

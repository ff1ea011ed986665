package controllers

import (
	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/repository"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const overviewShelfSize = 8

type OverviewController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Catalog *repository.CatalogRepository
	Relay   storage.Relay
	Log     *zap.Logger
}

func NewOverviewController(db *gorm.DB, cfg *config.Config, catalog *repository.CatalogRepository, relay storage.Relay, log *zap.Logger) *OverviewController {
	return &OverviewController{DB: db, Cfg: cfg, Catalog: catalog, Relay: relay, Log: log.Named("overview")}
}

// GetLookups godoc
// @Summary Category and difficulty tables
// @Tags overview
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /overview/lookups [get]
func (oc *OverviewController) GetLookups(c *fiber.Ctx) error {
	categories, err := oc.Catalog.Categories(c.UserContext())
	if err != nil {
		return respondError(c, oc.Log, err)
	}
	difficulties, err := oc.Catalog.Difficulties(c.UserContext())
	if err != nil {
		return respondError(c, oc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"categories":   categories,
		"difficulties": difficulties,
	})
}

// GetOverview godoc
// @Summary Landing page shelves
// @Description Newest and most liked classes
// @Tags overview
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /overview [get]
func (oc *OverviewController) GetOverview(c *fiber.Ctx) error {
	newest, err := oc.shelf("products.created_at DESC")
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}
	popular, err := oc.shelf("(SELECT COUNT(*) FROM product_likes WHERE product_likes.product_id = products.id) DESC")
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"newest":  newest,
		"popular": popular,
	})
}

func (oc *OverviewController) shelf(order string) ([]fiber.Map, error) {
	var products []models.Product
	if err := oc.DB.Preload("SubCategory").Preload("Creator").
		Where("products.is_deleted = ?", false).
		Order(order).
		Order("products.id DESC").
		Limit(overviewShelfSize).
		Find(&products).Error; err != nil {
		return nil, err
	}
	cards := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard(oc.DB, oc.Relay, p))
	}
	return cards, nil
}

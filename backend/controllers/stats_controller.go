package controllers

import (
	"time"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewStatsController(db *gorm.DB, cfg *config.Config) *StatsController {
	return &StatsController{DB: db, Cfg: cfg}
}

// GetCreatorStats godoc
// @Summary Creator statistics
// @Description Per-class likes, orders, students, posts and revenue for the caller's published classes. Orders are counted inside the period.
// @Tags creator
// @Produce json
// @Param start_date query string false "YYYY-MM-DD, defaults to one month ago"
// @Param end_date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /creator/stats [get]
func (sc *StatsController) GetCreatorStats(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	start := time.Now().AddDate(0, -1, 0)
	end := time.Now()
	var err error
	if s := c.Query("start_date"); s != "" {
		if start, err = time.Parse("2006-01-02", s); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_DATE", "start_date")
		}
	}
	if e := c.Query("end_date"); e != "" {
		if end, err = time.Parse("2006-01-02", e); err != nil {
			return fail(c, fiber.StatusBadRequest, "INVALID_DATE", "end_date")
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	var products []models.Product
	if err := sc.DB.Where("creator_id = ? AND is_deleted = ?", userID, false).Order("id").Find(&products).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}

	stats := models.CreatorStats{
		Products: make([]models.ProductStats, 0, len(products)),
		Period:   models.StatsPeriod{Start: start.Format("2006-01-02"), End: end.Format("2006-01-02")},
	}
	for _, p := range products {
		ps := models.ProductStats{ProductID: p.ID, Name: p.Name}
		sc.DB.Model(&models.ProductLike{}).Where("product_id = ?", p.ID).Count(&ps.Likes)
		sc.DB.Model(&models.Order{}).
			Where("product_id = ? AND created_at BETWEEN ? AND ?", p.ID, start, end).
			Count(&ps.Orders)
		sc.DB.Model(&models.Order{}).
			Where("product_id = ? AND created_at BETWEEN ? AND ?", p.ID, start, end).
			Select("COALESCE(SUM(paid_price), 0)").
			Scan(&ps.Revenue)
		sc.DB.Model(&models.UserProduct{}).Where("product_id = ?", p.ID).
			Distinct("user_id").Count(&ps.Students)
		sc.DB.Model(&models.Community{}).Where("product_id = ?", p.ID).Count(&ps.Posts)
		sc.DB.Model(&models.LectureProgress{}).Where("product_id = ?", p.ID).Count(&ps.Completions)

		stats.TotalOrders += ps.Orders
		stats.TotalRevenue += ps.Revenue
		stats.Products = append(stats.Products, ps)
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

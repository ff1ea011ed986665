package controllers

import (
	"errors"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// canAttend reports whether the user bought the product or created it.
func (pc *ProgressController) canAttend(userID uint, product models.Product) bool {
	if product.CreatorID != nil && *product.CreatorID == userID {
		return true
	}
	var n int64
	pc.DB.Model(&models.UserProduct{}).Where("user_id = ? AND product_id = ?", userID, product.ID).Count(&n)
	return n > 0
}

func (pc *ProgressController) loadProduct(c *fiber.Ctx) (*models.Product, error) {
	productID, ok := idParam(c, "id")
	if !ok {
		return nil, fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}
	var product models.Product
	if err := pc.DB.Where("id = ? AND is_deleted = ?", productID, false).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, "PRODUCT_NOT_EXIST")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	if !pc.canAttend(utils.CurrentUserID(c), product) {
		return nil, fail(c, fiber.StatusForbidden, "NOT_PURCHASED")
	}
	return &product, nil
}

// CompleteLecture godoc
// @Summary Mark a lecture complete
// @Description Records that the caller finished a lecture. Repeating the call is a no-op.
// @Tags progress
// @Produce json
// @Param id path int true "Product ID"
// @Param lectureId path int true "Lecture ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id}/lectures/{lectureId}/progress [post]
func (pc *ProgressController) CompleteLecture(c *fiber.Ctx) error {
	product, err := pc.loadProduct(c)
	if product == nil {
		return err
	}
	lectureID, ok := idParam(c, "lectureId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "lectureId")
	}

	var lecture models.Lecture
	if err := pc.DB.Where("id = ? AND product_id = ?", lectureID, product.ID).First(&lecture).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "LECTURE_NOT_EXIST")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	progress := models.LectureProgress{UserID: utils.CurrentUserID(c), ProductID: product.ID, LectureID: lecture.ID}
	if err := pc.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&progress).Error; err != nil {
		return utils.InternalServerError(c, "Could not save progress")
	}
	return pc.overview(c, product.ID)
}

// GetProductProgress godoc
// @Summary Progress in a class
// @Description Returns completed and total lecture counts for the caller
// @Tags progress
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id}/progress [get]
func (pc *ProgressController) GetProductProgress(c *fiber.Ctx) error {
	product, err := pc.loadProduct(c)
	if product == nil {
		return err
	}
	return pc.overview(c, product.ID)
}

func (pc *ProgressController) overview(c *fiber.Ctx, productID uint) error {
	var total, completed int64
	if err := pc.DB.Model(&models.Lecture{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}
	if err := pc.DB.Model(&models.LectureProgress{}).
		Where("user_id = ? AND product_id = ?", utils.CurrentUserID(c), productID).
		Count(&completed).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}
	return utils.Success(c, fiber.StatusOK, models.ProgressOverview{
		ProductID:      productID,
		TotalLectures:  total,
		Completed:      completed,
		CompletionRate: rate,
	})
}

package controllers

import (
	"strconv"
	"time"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Relay storage.Relay
}

func NewUserController(db *gorm.DB, cfg *config.Config, relay storage.Relay) *UserController {
	return &UserController{DB: db, Cfg: cfg, Relay: relay}
}

type UpdateUserRequest struct {
	NickName    string `json:"nickName" example:"painter" maxLength:"50"`
	PhoneNumber string `json:"phoneNumber" example:"010-1234-5678"`
	OldPassword string `json:"oldPassword" example:"oldPassword123" minLength:"8"`
	NewPassword string `json:"newPassword" example:"newPassword123" minLength:"8"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "NO_EXIST_USER")
	}

	var coupons, purchased int64
	uc.DB.Model(&models.UserCoupon{}).Where("user_id = ? AND used_at IS NULL", userID).Count(&coupons)
	uc.DB.Model(&models.UserProduct{}).Where("user_id = ?", userID).Count(&purchased)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":           user.ID,
		"name":         user.Name,
		"nickName":     user.NickName,
		"email":        user.Email,
		"phoneNumber":  user.PhoneNumber,
		"isCreator":    user.IsCreator,
		"profileImage": storage.URLOrNil(uc.Relay, user.ProfileImage),
		"point":        user.Point,
		"coupons":      coupons,
		"purchased":    purchased,
		"createdAt":    user.CreatedAt,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates nick name, phone number and password
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "TYPE_ERROR")
	}

	var user models.User
	if err := uc.DB.First(&user, utils.CurrentUserID(c)).Error; err != nil {
		return utils.NotFound(c, "NO_EXIST_USER")
	}

	if input.NickName != "" {
		if !utils.IsValidName(input.NickName) {
			return fail(c, fiber.StatusBadRequest, "INVALID_NAME")
		}
		user.NickName = input.NickName
	}
	if input.PhoneNumber != "" {
		user.PhoneNumber = input.PhoneNumber
	}

	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return fail(c, fiber.StatusBadRequest, "KEY_ERROR", "oldPassword")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return fail(c, fiber.StatusUnauthorized, "INVALID_PASSWORD")
		}
		if !utils.IsValidPassword(input.NewPassword) {
			return fail(c, fiber.StatusBadRequest, "INVALID_PASSWORD")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	return utils.Message(c, fiber.StatusOK, "SUCCESS")
}

// GetCoupons lists the caller's unused coupons. Coupons without an expiry
// date are reported as "unlimited".
func (uc *UserController) GetCoupons(c *fiber.Ctx) error {
	var owned []models.UserCoupon
	if err := uc.DB.Preload("Coupon").
		Where("user_id = ? AND used_at IS NULL", utils.CurrentUserID(c)).
		Order("id").
		Find(&owned).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch coupons")
	}
	return utils.Success(c, fiber.StatusOK, couponViews(owned, time.Now()))
}

func couponViews(owned []models.UserCoupon, now time.Time) []fiber.Map {
	result := make([]fiber.Map, 0, len(owned))
	for _, uc := range owned {
		if uc.Coupon.Expired(now) {
			continue
		}
		expire := "unlimited"
		if uc.Coupon.ExpireDate != nil {
			expire = uc.Coupon.ExpireDate.Format("2006-01-02")
		}
		result = append(result, fiber.Map{
			"userCouponId": uc.ID,
			"name":         uc.Coupon.Name,
			"discountCost": uc.Coupon.DiscountCost,
			"isKitFree":    uc.Coupon.IsKitFree,
			"expireDate":   expire,
		})
	}
	return result
}

func pageParams(c *fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// listProducts pages through products joined from a user-scoped link table.
func (uc *UserController) listProducts(c *fiber.Ctx, link interface{}, table string) error {
	userID := utils.CurrentUserID(c)
	page, pageSize := pageParams(c)

	query := uc.DB.Model(link).Where(table+".user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}

	var products []models.Product
	if err := uc.DB.Preload("SubCategory").Preload("Creator").
		Joins("JOIN "+table+" ON "+table+".product_id = products.id").
		Where(table+".user_id = ? AND products.is_deleted = ?", userID, false).
		Order(table + ".created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}

	cards := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard(uc.DB, uc.Relay, p))
	}
	return utils.Paginate(c, cards, total, page, pageSize)
}

func (uc *UserController) GetLikedProducts(c *fiber.Ctx) error {
	return uc.listProducts(c, &models.ProductLike{}, "product_likes")
}

func (uc *UserController) GetRecentlyViewed(c *fiber.Ctx) error {
	return uc.listProducts(c, &models.RecentlyView{}, "recently_views")
}

func (uc *UserController) GetPurchasedProducts(c *fiber.Ctx) error {
	return uc.listProducts(c, &models.UserProduct{}, "user_products")
}

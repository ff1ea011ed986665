package controllers

import (
	"errors"
	"time"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/services"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Checkout *services.Checkout
	Log      *zap.Logger
}

func NewOrderController(db *gorm.DB, cfg *config.Config, checkout *services.Checkout, log *zap.Logger) *OrderController {
	return &OrderController{DB: db, Cfg: cfg, Checkout: checkout, Log: log.Named("order")}
}

// GetCheckout godoc
// @Summary Checkout summary
// @Description Returns the price breakdown, the buyer's contact data, usable coupons and payment methods
// @Tags orders
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id}/order [get]
func (oc *OrderController) GetCheckout(c *fiber.Ctx) error {
	productID, ok := idParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}
	userID := utils.CurrentUserID(c)

	var product models.Product
	if err := oc.DB.Where("id = ? AND is_deleted = ?", productID, false).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "PRODUCT_NOT_EXIST")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var user models.User
	if err := oc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "NO_EXIST_USER")
	}

	var owned []models.UserCoupon
	if err := oc.DB.Preload("Coupon").
		Where("user_id = ? AND used_at IS NULL", userID).
		Order("id").
		Find(&owned).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch coupons")
	}

	var methods []models.PaymentMethod
	oc.DB.Order("id").Find(&methods)
	methodNames := make([]string, 0, len(methods))
	for _, m := range methods {
		methodNames = append(methodNames, m.Name)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"className":      product.Name,
		"userName":       user.Name,
		"phoneNumber":    user.PhoneNumber,
		"price":          services.QuoteFor(product, nil),
		"coupons":        couponViews(owned, time.Now()),
		"paymentMethods": methodNames,
	})
}

// PlaceOrder godoc
// @Summary Place an order
// @Description Records an order for the class, consuming the selected coupon
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body services.OrderInput true "Order"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id}/order [post]
func (oc *OrderController) PlaceOrder(c *fiber.Ctx) error {
	productID, ok := idParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}

	var input services.OrderInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "Cannot parse JSON")
	}

	order, err := oc.Checkout.PlaceOrder(c.UserContext(), utils.CurrentUserID(c), productID, input)
	if err != nil {
		return respondError(c, oc.Log, err)
	}
	return utils.Created(c, fiber.Map{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"paidPrice":   order.PaidPrice,
		"status":      models.OrderStatusPending,
	})
}

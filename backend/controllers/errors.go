package controllers

import (
	"errors"

	"classmarket/backend/services"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// errType marks a request value of the wrong type.
var errType = errors.New("TYPE_ERROR")

func fail(c *fiber.Ctx, status int, code string, details ...interface{}) error {
	return utils.ErrorCode(c, status, code, details...)
}

// respondError maps a service error onto the response envelope. Unknown
// errors are logged and hidden behind a 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrKey):
		return fail(c, fiber.StatusBadRequest, "KEY_ERROR", err.Error())
	case errors.Is(err, errType):
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", err.Error())
	case errors.Is(err, services.ErrInvalid):
		return fail(c, fiber.StatusBadRequest, "INVALID_VALUE", err.Error())
	case errors.Is(err, services.ErrIncomplete):
		return fail(c, fiber.StatusBadRequest, "INCOMPLETE_DRAFT", err.Error())
	case errors.Is(err, services.ErrCouponUsed):
		return fail(c, fiber.StatusBadRequest, "COUPON_ALREADY_USED")
	case errors.Is(err, services.ErrCouponExpired):
		return fail(c, fiber.StatusBadRequest, "COUPON_EXPIRED")
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN")
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	}
	log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
}

// idParam reads a positive integer path parameter.
func idParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

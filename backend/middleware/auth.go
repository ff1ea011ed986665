package middleware

import (
	"errors"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthMiddleware rejects requests without a valid token and stores the
// caller's id in c.Locals(utils.UserIDKey).
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.ErrorCode(c, fiber.StatusUnauthorized, "INVALID_TOKEN")
		}
		c.Locals(utils.UserIDKey, userID)
		return c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if userID, err := utils.ExtractUserIDFromToken(c, cfg); err == nil {
			c.Locals(utils.UserIDKey, userID)
		}
		return c.Next()
	}
}

// CreatorMiddleware must run after AuthMiddleware. It only admits users
// flagged as creators.
func CreatorMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		err := db.WithContext(c.UserContext()).Select("id", "is_creator").First(&user, utils.CurrentUserID(c)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorCode(c, fiber.StatusUnauthorized, "INVALID_USER")
		}
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		if !user.IsCreator {
			return utils.ErrorCode(c, fiber.StatusForbidden, "CREATOR_ONLY")
		}
		return c.Next()
	}
}

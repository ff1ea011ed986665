package controllers

import (
	"errors"
	"strings"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, log *zap.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Log: log.Named("auth")}
}

type RegisterRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	NickName    string `json:"nickName"`
	PhoneNumber string `json:"phoneNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "Cannot parse JSON")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return fail(c, fiber.StatusBadRequest, "KEY_ERROR", utils.ValidationErrors(err))
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	switch {
	case !utils.IsValidName(input.Name):
		return fail(c, fiber.StatusBadRequest, "INVALID_NAME")
	case !utils.IsValidEmail(input.Email):
		return fail(c, fiber.StatusBadRequest, "INVALID_EMAIL")
	case !utils.IsValidPassword(input.Password):
		return fail(c, fiber.StatusBadRequest, "INVALID_PASSWORD")
	}

	var count int64
	if err := ac.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if count > 0 {
		return fail(c, fiber.StatusConflict, "DUPLICATED_INFORMATION")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	nickName := input.NickName
	if nickName == "" {
		nickName = input.Name
	}
	user := models.User{
		Name:         input.Name,
		NickName:     nickName,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		PhoneNumber:  input.PhoneNumber,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		ac.Log.Error("could not create user", zap.String("email", user.Email), zap.Error(err))
		return utils.InternalServerError(c, "Could not create user")
	}

	ac.Log.Info("user registered", zap.Uint("user_id", user.ID))
	return utils.Created(c, fiber.Map{"id": user.ID, "name": user.Name, "email": user.Email})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "Cannot parse JSON")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return fail(c, fiber.StatusBadRequest, "KEY_ERROR", utils.ValidationErrors(err))
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusUnauthorized, "NO_EXIST_USER")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return fail(c, fiber.StatusUnauthorized, "INVALID_PASSWORD")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"name":  user.Name,
	})
}

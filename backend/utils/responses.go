package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the envelope for successful responses.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the error envelope. Error is the HTTP status text and
// Message a stable upper-case code such as KEY_ERROR or PRODUCT_NOT_EXIST.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PaginatedResponse carries one page of a list plus the unpaged total.
type PaginatedResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{Success: true, Data: data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusCreated, data)
}

// Message sends a data-less success envelope, e.g. {"success":true,"message":"SUCCESS"}.
func Message(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(SuccessResponse{Success: true, Message: message})
}

func Paginate(c *fiber.Ctx, data interface{}, total int64, page int, pageSize int) error {
	return c.JSON(PaginatedResponse{
		Success:  true,
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ErrorCode sends the error envelope with a message code. The first detail,
// if any, is attached as-is.
func ErrorCode(c *fiber.Ctx, status int, code string, details ...interface{}) error {
	response := ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: code,
	}
	if len(details) > 0 {
		response.Details = details[0]
	}
	return c.Status(status).JSON(response)
}

func ValidationError(c *fiber.Ctx, errors map[string]string) error {
	return ErrorCode(c, fiber.StatusBadRequest, "KEY_ERROR", errors)
}

func NotFound(c *fiber.Ctx, code string) error {
	return ErrorCode(c, fiber.StatusNotFound, code)
}

func BadRequest(c *fiber.Ctx, code string) error {
	return ErrorCode(c, fiber.StatusBadRequest, code)
}

// InternalServerError hides the cause from the caller; message is a short
// description for logs and clients.
func InternalServerError(c *fiber.Ctx, message string) error {
	return ErrorCode(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", message)
}

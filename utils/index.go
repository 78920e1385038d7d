package utils

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorResponse writes the error envelope. Details of server errors are logged, never returned.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	var errMsg interface{}
	if status >= fiber.StatusInternalServerError {
		slog.Error(message,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"err", err,
		)
	} else if err != nil {
		errMsg = err.Error()
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"error":   errMsg,
	})
}

func SuccessResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Ptr[T any](v T) *T {
	return &v
}

// MaxPageSize caps list endpoints.
const MaxPageSize = 100

// Paginate is a gorm scope for limit/page query params. Without a limit the first
// MaxPageSize rows are returned.
func Paginate(limit, page *int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		size := MaxPageSize
		if limit != nil && *limit > 0 && *limit < MaxPageSize {
			size = *limit
		}
		offset := 0
		if page != nil && *page > 1 {
			offset = size * (*page - 1)
		}
		return db.Limit(size).Offset(offset)
	}
}

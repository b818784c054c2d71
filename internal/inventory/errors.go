package inventory

import (
	"errors"
	"log"

	"inventory-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const timeLayout = "2006-01-02 15:04:05"

// httpError maps store and stock errors onto status codes. Unknown errors are
// logged and hidden behind msg.
func httpError(err error, msg string) error {
	switch {
	case errors.Is(err, stock.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, stock.ErrInvalidAdjustment):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, stock.ErrDuplicateCode), errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.NewError(fiber.StatusConflict, "code or name already exists")
	default:
		log.Printf("%s: %v", msg, err)
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}

func idParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

package admin

import (
	"inventory-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
)

// POST /api/admin/test-email/stock?code=&name=&old_qty=&new_qty=&note=
func StockTestEmailHandler(q notify.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		notify.Publish(c.UserContext(), q, notify.KindStockChange, notify.Fields{
			"code":    c.Query("code", "MISTST0001"),
			"name":    c.Query("name", "Test Item"),
			"old_qty": c.QueryInt("old_qty", 10),
			"new_qty": c.QueryInt("new_qty", 7),
			"note":    c.Query("note", "Testing email system"),
		})
		return c.JSON(fiber.Map{"queued": true, "type": notify.KindStockChange})
	}
}

// POST /api/admin/test-email/low-stock?code=&name=&qty=&buffer=
func LowStockTestEmailHandler(q notify.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		notify.Publish(c.UserContext(), q, notify.KindLowStock, notify.Fields{
			"code":   c.Query("code", "MISTST0002"),
			"name":   c.Query("name", "Low Item"),
			"qty":    c.QueryInt("qty", 3),
			"buffer": c.QueryInt("buffer", 10),
		})
		return c.JSON(fiber.Map{"queued": true, "type": notify.KindLowStock})
	}
}

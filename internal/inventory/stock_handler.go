package inventory

import (
	"strconv"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/models"
	"inventory-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdjustResponse struct {
	ItemResponse
	OldQuantity   int           `json:"old_quantity"`
	CategoryTotal int           `json:"category_total"`
	LowStock      bool          `json:"low_stock"`
	Notification  stock.Outcome `json:"notification"`
}

type TransactionResponse struct {
	ID          uint   `json:"id"`
	ItemID      uint   `json:"item_id"`
	QtyChange   int    `json:"qty_change"`
	Note        string `json:"note"`
	PerformedBy *uint  `json:"performed_by"`
	CreatedAt   string `json:"created_at"`
}

// PATCH /api/items/:id/adjust?change=-3&note=used
func AdjustStockHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		change, err := strconv.Atoi(c.Query("change"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "change must be an integer, e.g. 5 or -2")
		}
		if change == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "change cannot be 0")
		}

		res, err := svc.Adjust(c.UserContext(), stock.AdjustRequest{
			ItemID:      id,
			Delta:       change,
			Note:        c.Query("note"),
			PerformedBy: auth.CurrentUserID(c),
		})
		if err != nil {
			return httpError(err, "could not adjust stock")
		}

		return c.JSON(AdjustResponse{
			ItemResponse:  newItemResponse(res.Item),
			OldQuantity:   res.OldQuantity,
			CategoryTotal: res.NewTotal,
			LowStock:      res.LowStock,
			Notification:  res.Outcome,
		})
	}
}

// GET /api/items/:id/transactions?limit=
func ListTransactionsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", 100)
		if limit < 1 || limit > 500 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
		}

		var it models.Item
		if err := db.WithContext(c.UserContext()).Select("id").First(&it, "id = ?", id).Error; err != nil {
			return httpError(err, "could not load item")
		}

		var rows []models.Transaction
		err = db.WithContext(c.UserContext()).
			Where("item_id = ?", id).
			Order("id desc").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return httpError(err, "could not list transactions")
		}

		res := make([]TransactionResponse, 0, len(rows))
		for _, t := range rows {
			res = append(res, TransactionResponse{
				ID:          t.ID,
				ItemID:      t.ItemID,
				QtyChange:   t.QtyChange,
				Note:        t.Note,
				PerformedBy: t.PerformedBy,
				CreatedAt:   t.CreatedAt.Format(timeLayout),
			})
		}
		return c.JSON(res)
	}
}

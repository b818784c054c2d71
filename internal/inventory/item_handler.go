package inventory

import (
	"errors"
	"strings"

	"inventory-backend/internal/audit"
	"inventory-backend/internal/models"
	"inventory-backend/internal/notify"
	"inventory-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ItemResponse struct {
	ID         uint   `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	CategoryID uint   `json:"category_id"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func newItemResponse(it models.Item) ItemResponse {
	return ItemResponse{
		ID:         it.ID,
		Code:       it.Code,
		Name:       it.Name,
		Quantity:   it.Quantity,
		CategoryID: it.CategoryID,
		CreatedAt:  it.CreatedAt.Format(timeLayout),
		UpdatedAt:  it.UpdatedAt.Format(timeLayout),
	}
}

type CreateItemRequest struct {
	Code       string `json:"code"` // generated from the category code when empty
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	CategoryID uint   `json:"category_id"`
}

type UpdateItemRequest struct {
	models.ItemUpdate
	Quantity *int `json:"quantity"`
}

func loadCategory(c *fiber.Ctx, db *gorm.DB, id uint) (*models.Category, error) {
	var cat models.Category
	err := db.WithContext(c.UserContext()).First(&cat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "category not found")
	}
	if err != nil {
		return nil, httpError(err, "could not load category")
	}
	return &cat, nil
}

// GET /api/items?q=&limit=&offset=
func ListItemsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		offset := c.QueryInt("offset", 0)
		if limit < 1 || limit > 200 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 200")
		}
		if offset < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "offset cannot be negative")
		}

		dbq := db.WithContext(c.UserContext()).Model(&models.Item{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
		}
		if cid := c.QueryInt("category_id", 0); cid > 0 {
			dbq = dbq.Where("category_id = ?", cid)
		}

		var items []models.Item
		if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
			return httpError(err, "could not list items")
		}

		res := make([]ItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, newItemResponse(it))
		}
		return c.JSON(res)
	}
}

// GET /api/items/:id
func GetItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}
		var it models.Item
		if err := db.WithContext(c.UserContext()).First(&it, "id = ?", id).Error; err != nil {
			return httpError(err, "could not load item")
		}
		return c.JSON(newItemResponse(it))
	}
}

// POST /api/items
func CreateItemHandler(db *gorm.DB, q notify.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Code = strings.TrimSpace(body.Code)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity cannot be negative")
		}
		if body.CategoryID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_id is required")
		}

		cat, err := loadCategory(c, db, body.CategoryID)
		if err != nil {
			return err
		}

		if body.Code == "" {
			if body.Code, err = nextCode(c, db, cat.ID, true); err != nil {
				return err
			}
		}

		it := models.Item{
			Code:       body.Code,
			Name:       body.Name,
			Quantity:   body.Quantity,
			CategoryID: cat.ID,
		}
		if err := db.WithContext(c.UserContext()).Create(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "item code already exists")
			}
			return httpError(err, "could not create item")
		}

		opts := audit.FromRequest(c, "item", it.ID, models.AuditActionCreate)
		opts.Description = "item " + it.Code + " created"
		opts.After = it
		audit.Record(db, opts)

		notify.Publish(c.UserContext(), q, notify.KindItemCreated, notify.Fields{
			"code":          it.Code,
			"name":          it.Name,
			"quantity":      it.Quantity,
			"category_name": cat.Name,
		})

		return c.Status(fiber.StatusCreated).JSON(newItemResponse(it))
	}
}

// PATCH /api/items/:id
func UpdateItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Quantity != nil {
			return fiber.NewError(fiber.StatusBadRequest, "quantity can only change through /adjust")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			body.Name = &name
		}

		before, it, err := stock.UpdateItem(c.UserContext(), db, id, body.ItemUpdate)
		if errors.Is(err, stock.ErrUnknownCategory) {
			return fiber.NewError(fiber.StatusBadRequest, "category not found")
		}
		if err != nil {
			return httpError(err, "could not update item")
		}

		opts := audit.FromRequest(c, "item", it.ID, models.AuditActionUpdate)
		opts.Description = "item " + it.Code + " updated"
		opts.Before = before
		opts.After = it
		audit.Record(db, opts)

		return c.JSON(newItemResponse(it))
	}
}

// DELETE /api/items/:id
func DeleteItemHandler(db *gorm.DB, q notify.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		var it models.Item
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&it, "id = ?", id).Error; err != nil {
				return err
			}
			if err := tx.Where("item_id = ?", it.ID).Delete(&models.Transaction{}).Error; err != nil {
				return err
			}
			return tx.Delete(&it).Error
		})
		if err != nil {
			return httpError(err, "could not delete item")
		}

		opts := audit.FromRequest(c, "item", it.ID, models.AuditActionDelete)
		opts.Description = "item " + it.Code + " deleted"
		opts.Before = it
		audit.Record(db, opts)

		notify.Publish(c.UserContext(), q, notify.KindItemDeleted, notify.Fields{
			"code":           it.Code,
			"name":           it.Name,
			"last_known_qty": it.Quantity,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

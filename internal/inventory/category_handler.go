package inventory

import (
	"errors"
	"strings"

	"inventory-backend/internal/audit"
	"inventory-backend/internal/codes"
	"inventory-backend/internal/models"
	"inventory-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CategoryResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Code      *string `json:"code"`
	Buffer    int     `json:"buffer"`
	CreatedAt string  `json:"created_at"`
}

func newCategoryResponse(cat models.Category) CategoryResponse {
	return CategoryResponse{
		ID:        cat.ID,
		Name:      cat.Name,
		Code:      cat.Code,
		Buffer:    cat.Buffer,
		CreatedAt: cat.CreatedAt.Format(timeLayout),
	}
}

type CreateCategoryRequest struct {
	Name   string  `json:"name"`
	Code   *string `json:"code"`
	Buffer int     `json:"buffer"`
}

func validateCategory(cat *models.Category) error {
	cat.Name = strings.TrimSpace(cat.Name)
	if n := len([]rune(cat.Name)); n < 2 || n > 120 {
		return fiber.NewError(fiber.StatusBadRequest, "name must be 2-120 characters")
	}
	if cat.Code != nil {
		code := strings.TrimSpace(*cat.Code)
		if code == "" {
			cat.Code = nil
		} else if len(code) > 64 {
			return fiber.NewError(fiber.StatusBadRequest, "code must be at most 64 characters")
		} else {
			cat.Code = &code
		}
	}
	if cat.Buffer < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "buffer cannot be negative")
	}
	return nil
}

// GET /api/categories
func ListCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cats []models.Category
		if err := db.WithContext(c.UserContext()).Order("name asc").Find(&cats).Error; err != nil {
			return httpError(err, "could not list categories")
		}

		res := make([]CategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, newCategoryResponse(cat))
		}
		return c.JSON(res)
	}
}

// GET /api/categories/:id
func GetCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}
		var cat models.Category
		if err := db.WithContext(c.UserContext()).First(&cat, "id = ?", id).Error; err != nil {
			return httpError(err, "could not load category")
		}
		return c.JSON(newCategoryResponse(cat))
	}
}

// POST /api/categories
func CreateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		cat := models.Category{Name: body.Name, Code: body.Code, Buffer: body.Buffer}
		if err := validateCategory(&cat); err != nil {
			return err
		}
		if err := db.WithContext(c.UserContext()).Create(&cat).Error; err != nil {
			return httpError(err, "could not create category")
		}

		opts := audit.FromRequest(c, "category", cat.ID, models.AuditActionCreate)
		opts.Description = "category " + cat.Name + " created"
		opts.After = cat
		audit.Record(db, opts)

		return c.Status(fiber.StatusCreated).JSON(newCategoryResponse(cat))
	}
}

// PATCH /api/categories/:id
func UpdateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		var body models.CategoryUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var cat models.Category
		if err := db.WithContext(c.UserContext()).First(&cat, "id = ?", id).Error; err != nil {
			return httpError(err, "could not load category")
		}
		before := cat

		body.Apply(&cat)
		if err := validateCategory(&cat); err != nil {
			return err
		}
		if err := db.WithContext(c.UserContext()).Save(&cat).Error; err != nil {
			return httpError(err, "could not update category")
		}

		opts := audit.FromRequest(c, "category", cat.ID, models.AuditActionUpdate)
		opts.Description = "category " + cat.Name + " updated"
		opts.Before = before
		opts.After = cat
		audit.Record(db, opts)

		return c.JSON(newCategoryResponse(cat))
	}
}

// DELETE /api/categories/:id
func DeleteCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}

		var cat models.Category
		if err := db.WithContext(c.UserContext()).First(&cat, "id = ?", id).Error; err != nil {
			return httpError(err, "could not load category")
		}

		var count int64
		if err := db.WithContext(c.UserContext()).Model(&models.Item{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return httpError(err, "could not delete category")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "category still has items, move or delete them first")
		}

		if err := db.WithContext(c.UserContext()).Delete(&models.Category{}, "id = ?", id).Error; err != nil {
			return httpError(err, "could not delete category")
		}

		opts := audit.FromRequest(c, "category", cat.ID, models.AuditActionDelete)
		opts.Description = "category " + cat.Name + " deleted"
		opts.Before = cat
		audit.Record(db, opts)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/categories/:id/summary
func CategorySummaryHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}
		sum, err := svc.Summary(c.UserContext(), id)
		if err != nil {
			return httpError(err, "could not compute category summary")
		}
		return c.JSON(sum)
	}
}

// GET /api/categories/:id/next-code?fill_gaps=true
func NextItemCodeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return err
		}
		code, err := nextCode(c, db, id, c.QueryBool("fill_gaps", true))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"code": code})
	}
}

func nextCode(c *fiber.Ctx, db *gorm.DB, categoryID uint, fillGaps bool) (string, error) {
	code, err := codes.NextForCategory(c.UserContext(), db, categoryID, fillGaps)
	switch {
	case err == nil:
		return code, nil
	case errors.Is(err, codes.ErrCategoryNotFound):
		return "", fiber.NewError(fiber.StatusNotFound, "category not found")
	case errors.Is(err, codes.ErrNoCategoryCode):
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return "", httpError(err, "could not generate item code")
	}
}

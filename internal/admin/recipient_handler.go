package admin

import (
	"net/mail"
	"strings"

	"inventory-backend/internal/audit"
	"inventory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateRecipientRequest struct {
	Email string `json:"email"`
}

type UpdateRecipientRequest struct {
	Active *bool `json:"active"`
}

// GET /api/admin/recipients
func ListRecipientsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var recs []models.EmailRecipient
		if err := db.WithContext(c.UserContext()).Order("id asc").Find(&recs).Error; err != nil {
			return storeError(err, "could not list recipients")
		}
		return c.JSON(recs)
	}
}

// POST /api/admin/recipients
func CreateRecipientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRecipientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		email := strings.TrimSpace(body.Email)
		if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email address")
		}

		rec := models.EmailRecipient{Email: email, Active: true}
		if err := db.WithContext(c.UserContext()).Create(&rec).Error; err != nil {
			return storeError(err, "could not create recipient")
		}

		opts := audit.FromRequest(c, "recipient", rec.ID, models.AuditActionCreate)
		opts.Description = "recipient " + rec.Email + " added"
		opts.After = rec
		audit.Record(db, opts)

		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PATCH /api/admin/recipients/:id
func UpdateRecipientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := userIDParam(c)
		if err != nil {
			return err
		}
		var body UpdateRecipientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var rec models.EmailRecipient
		if err := db.WithContext(c.UserContext()).First(&rec, "id = ?", id).Error; err != nil {
			return storeError(err, "could not load recipient")
		}
		before := rec

		if body.Active != nil {
			// Update instead of Save: a false value must not fall back to the column default
			if err := db.WithContext(c.UserContext()).Model(&rec).Update("active", *body.Active).Error; err != nil {
				return storeError(err, "could not update recipient")
			}
			rec.Active = *body.Active
		}

		opts := audit.FromRequest(c, "recipient", rec.ID, models.AuditActionUpdate)
		opts.Description = "recipient " + rec.Email + " updated"
		opts.Before = before
		opts.After = rec
		audit.Record(db, opts)

		return c.JSON(rec)
	}
}

// DELETE /api/admin/recipients/:id
func DeleteRecipientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := userIDParam(c)
		if err != nil {
			return err
		}
		var rec models.EmailRecipient
		if err := db.WithContext(c.UserContext()).First(&rec, "id = ?", id).Error; err != nil {
			return storeError(err, "could not load recipient")
		}
		if err := db.WithContext(c.UserContext()).Delete(&rec).Error; err != nil {
			return storeError(err, "could not delete recipient")
		}

		opts := audit.FromRequest(c, "recipient", rec.ID, models.AuditActionDelete)
		opts.Description = "recipient " + rec.Email + " removed"
		opts.Before = rec
		audit.Record(db, opts)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Package audit keeps a before/after trail of changes made through the API.
package audit

import (
	"encoding/json"
	"fmt"
	"log"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      *uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// FromRequest prefills the acting user from the JWT locals.
func FromRequest(c *fiber.Ctx, entityType string, entityID uint, action models.AuditAction) LogOptions {
	return LogOptions{
		UserID:     auth.CurrentUserID(c),
		UserName:   auth.CurrentUsername(c),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}
}

func WriteLog(db *gorm.DB, opts LogOptions) error {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record is WriteLog for handlers: the change already happened, so a failed
// audit write is only logged.
func Record(db *gorm.DB, opts LogOptions) {
	if err := WriteLog(db, opts); err != nil {
		log.Printf("[WARN] %s %s #%d: %v", opts.Action, opts.EntityType, opts.EntityID, err)
	}
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

package admin

import (
	"errors"
	"log"
	"strings"

	"inventory-backend/internal/audit"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username string           `json:"username"`
	Password string           `json:"password"`
	Name     string           `json:"name"`
	Email    *string          `json:"email"`
	Role     *models.UserRole `json:"role"`
	IsAdmin  bool             `json:"is_admin"`
}

func validRole(r models.UserRole) bool {
	return r == models.RoleStaff || r == models.RoleAdmin
}

func userIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func storeError(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.NewError(fiber.StatusConflict, "already exists")
	default:
		log.Printf("%s: %v", msg, err)
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}

// GET /api/admin/users
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.WithContext(c.UserContext()).Order("id asc").Find(&users).Error; err != nil {
			return storeError(err, "could not list users")
		}
		res := make([]auth.UserResponse, 0, len(users))
		for i := range users {
			res = append(res, auth.NewUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/users
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		body.Name = strings.TrimSpace(body.Name)
		if body.Username == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username and name are required")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
		}

		role := models.RoleStaff
		if body.Role != nil {
			if !validRole(*body.Role) {
				return fiber.NewError(fiber.StatusBadRequest, "role must be staff or admin")
			}
			role = *body.Role
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		user := models.User{
			Username:     body.Username,
			Name:         body.Name,
			PasswordHash: hash,
			Role:         role,
			IsAdmin:      body.IsAdmin,
		}
		models.UserUpdate{Email: body.Email}.Apply(&user)

		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "username or email already exists")
			}
			return storeError(err, "could not create user")
		}

		opts := audit.FromRequest(c, "user", user.ID, models.AuditActionCreate)
		opts.Description = "user " + user.Username + " created"
		opts.After = auth.NewUserResponse(&user)
		audit.Record(db, opts)

		return c.Status(fiber.StatusCreated).JSON(auth.NewUserResponse(&user))
	}
}

// PATCH /api/admin/users/:id
func UpdateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := userIDParam(c)
		if err != nil {
			return err
		}

		var body models.UserUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if me := auth.CurrentUserID(c); me != nil && *me == id && body.IsAdmin != nil && !*body.IsAdmin {
			return fiber.NewError(fiber.StatusBadRequest, "you cannot remove your own admin rights")
		}
		if body.Role != nil && !validRole(*body.Role) {
			return fiber.NewError(fiber.StatusBadRequest, "role must be staff or admin")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, "id = ?", id).Error; err != nil {
			return storeError(err, "could not load user")
		}
		before := auth.NewUserResponse(&user)

		body.Apply(&user)
		if body.Password != nil && *body.Password != "" {
			if len(*body.Password) < 8 {
				return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
			}
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
			}
			user.PasswordHash = hash
		}

		if err := db.WithContext(c.UserContext()).Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "email already exists")
			}
			return storeError(err, "could not update user")
		}

		opts := audit.FromRequest(c, "user", user.ID, models.AuditActionUpdate)
		opts.Description = "user " + user.Username + " updated"
		opts.Before = before
		opts.After = auth.NewUserResponse(&user)
		audit.Record(db, opts)

		return c.JSON(auth.NewUserResponse(&user))
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := userIDParam(c)
		if err != nil {
			return err
		}
		if me := auth.CurrentUserID(c); me != nil && *me == id {
			return fiber.NewError(fiber.StatusBadRequest, "you cannot delete your own account")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, "id = ?", id).Error; err != nil {
			return storeError(err, "could not load user")
		}

		// keep the ledger rows, only forget who made them
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Transaction{}).Where("performed_by = ?", id).Update("performed_by", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&user).Error
		})
		if err != nil {
			return storeError(err, "could not delete user")
		}

		opts := audit.FromRequest(c, "user", user.ID, models.AuditActionDelete)
		opts.Description = "user " + user.Username + " deleted"
		opts.Before = auth.NewUserResponse(&user)
		audit.Record(db, opts)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

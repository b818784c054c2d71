// Command seedadmin creates the first admin account from ADMIN_* variables.
// Running it again is harmless.
package main

import (
	"errors"
	"log"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/config"
	"inventory-backend/internal/database"
	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

func main() {
	db := database.Init(config.LoadDatabase())
	seed := config.LoadAdminSeed()

	user, created, err := ensureAdmin(db, seed)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if created {
		log.Printf("[seed] created admin '%s' (id=%d)", user.Username, user.ID)
	} else {
		log.Printf("[seed] admin '%s' already exists (id=%d)", user.Username, user.ID)
	}
}

func ensureAdmin(db *gorm.DB, seed config.AdminSeed) (*models.User, bool, error) {
	var existing models.User
	err := db.Where("username = ?", seed.Username).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return nil, false, err
	}
	user := models.User{
		Username:     seed.Username,
		Name:         seed.Name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsAdmin:      true,
	}
	if seed.Email != "" {
		user.Email = &seed.Email
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

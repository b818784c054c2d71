package database

import (
	"fmt"
	"log"
	"time"

	"inventory-backend/internal/config"
	"inventory-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the PostgreSQL connection and migrates the schema. Any failure
// here is fatal: the server cannot do anything useful without its ledger.
func Init(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), GormConfig(cfg.DBLog))
	if err != nil {
		log.Fatalf("[FATAL] could not connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("[FATAL] could not get sql.DB handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	log.Println("database connected, migration finished")
	return db
}

// GormConfig is shared with the sqlite databases used in tests so that both
// translate unique violations into gorm.ErrDuplicatedKey.
func GormConfig(logSQL bool) *gorm.Config {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if !logSQL {
		gormLogger = gormLogger.LogMode(logger.Silent)
	} else {
		gormLogger = gormLogger.LogMode(logger.Info)
	}
	return &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}
}

func Migrate(db *gorm.DB) error {
	// order matters: referenced tables first
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.Transaction{},
		&models.EmailRecipient{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

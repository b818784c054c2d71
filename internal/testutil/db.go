// Package testutil opens throwaway sqlite databases with the production schema.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"inventory-backend/internal/database"
	"inventory-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenDB returns a migrated sqlite database stored in the test's temp dir.
// Write transactions take the database lock up front (_txlock=immediate) so
// concurrent adjustments serialize the way row locks make them on PostgreSQL.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inventory.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=10000&_txlock=immediate", path)

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(false))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func SeedCategory(t testing.TB, db *gorm.DB, name string, code string, buffer int) models.Category {
	t.Helper()
	cat := models.Category{Name: name, Buffer: buffer}
	if code != "" {
		cat.Code = &code
	}
	require.NoError(t, db.Create(&cat).Error)
	return cat
}

func SeedItem(t testing.TB, db *gorm.DB, categoryID uint, code string, qty int) models.Item {
	t.Helper()
	it := models.Item{Code: code, Name: "Item " + code, Quantity: qty, CategoryID: categoryID}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func SeedUser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Name: username, PasswordHash: "x", Role: models.RoleStaff}
	require.NoError(t, db.Create(&u).Error)
	return u
}

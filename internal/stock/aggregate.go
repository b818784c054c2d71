package stock

import (
	"context"
	"fmt"

	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

// CategoryTotal sums the quantity of every item in the category. It always
// reads the database; pass the transaction handle to see uncommitted changes.
func CategoryTotal(ctx context.Context, db *gorm.DB, categoryID uint) (int, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&models.Item{}).
		Where("category_id = ?", categoryID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum category %d: %w", categoryID, err)
	}
	return int(total), nil
}

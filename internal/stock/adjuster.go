package stock

import (
	"context"
	"errors"
	"fmt"

	"inventory-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockItem(ctx context.Context, tx *gorm.DB, itemID uint) (*models.Item, error) {
	var it models.Item
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&it, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	return &it, nil
}

func lockCategory(ctx context.Context, tx *gorm.DB, categoryID uint) (*models.Category, error) {
	var cat models.Category
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cat, "id = ?", categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load category %d: %w", categoryID, err)
	}
	return &cat, nil
}

// applyDelta moves it.Quantity by delta and records the ledger row. It must
// run inside the transaction that locked the item.
func applyDelta(ctx context.Context, tx *gorm.DB, it *models.Item, delta int, note string, performedBy *uint) error {
	newQty := it.Quantity + delta
	if newQty < 0 {
		return fmt.Errorf("%w: quantity %d%+d would be negative", ErrInvalidAdjustment, it.Quantity, delta)
	}

	if err := tx.WithContext(ctx).Model(it).Update("quantity", newQty).Error; err != nil {
		return fmt.Errorf("update quantity of item %d: %w", it.ID, err)
	}
	it.Quantity = newQty

	performedBy, err := existingUser(ctx, tx, performedBy)
	if err != nil {
		return err
	}
	row := models.Transaction{
		ItemID:      it.ID,
		QtyChange:   delta,
		Note:        note,
		PerformedBy: performedBy,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record transaction for item %d: %w", it.ID, err)
	}
	return nil
}

// existingUser returns id only if that user still exists. A token can outlive
// its user, and the ledger row must not point at a deleted account.
func existingUser(ctx context.Context, tx *gorm.DB, id *uint) (*uint, error) {
	if id == nil {
		return nil, nil
	}
	var n int64
	if err := tx.WithContext(ctx).Model(&models.User{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check user %d: %w", *id, err)
	}
	if n == 0 {
		return nil, nil
	}
	return id, nil
}

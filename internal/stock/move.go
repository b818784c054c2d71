package stock

import (
	"context"
	"fmt"

	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

// UpdateItem applies upd to the item under the same locks Adjust takes: the
// item row first, then the categories it leaves and joins in id order.
func UpdateItem(ctx context.Context, db *gorm.DB, itemID uint, upd models.ItemUpdate) (before, after models.Item, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := lockItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		before = *it

		if upd.CategoryID != nil && *upd.CategoryID != it.CategoryID {
			ids := []uint{it.CategoryID, *upd.CategoryID}
			if ids[1] < ids[0] {
				ids[0], ids[1] = ids[1], ids[0]
			}
			for _, id := range ids {
				if _, err := lockCategory(ctx, tx, id); err != nil {
					if id == *upd.CategoryID {
						return fmt.Errorf("%w: %d", ErrUnknownCategory, id)
					}
					return err
				}
			}
		}

		upd.Apply(it)
		err = tx.WithContext(ctx).Model(it).
			Updates(map[string]any{"name": it.Name, "category_id": it.CategoryID}).Error
		if err != nil {
			return fmt.Errorf("update item %d: %w", it.ID, err)
		}
		after = *it
		return nil
	})
	return before, after, err
}

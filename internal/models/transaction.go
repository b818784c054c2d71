package models

import "time"

// Transaction is one signed quantity change of an item. Rows are written once
// and only disappear together with their item.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ItemID      uint      `gorm:"index;not null" json:"item_id"`
	QtyChange   int       `gorm:"not null" json:"qty_change"`
	Note        string    `gorm:"type:text" json:"note"`
	PerformedBy *uint     `gorm:"index" json:"performed_by"`
	User        *User     `gorm:"foreignKey:PerformedBy;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

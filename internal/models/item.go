package models

import "time"

type Item struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Code         string        `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Name         string        `gorm:"size:255;not null" json:"name"`
	Quantity     int           `gorm:"not null;default:0" json:"quantity"`
	CategoryID   uint          `gorm:"index;not null" json:"category_id"`
	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ItemUpdate carries a partial item update. Quantity is deliberately absent:
// stock only moves through adjustments so the ledger stays complete.
type ItemUpdate struct {
	Name       *string `json:"name"`
	CategoryID *uint   `json:"category_id"`
}

func (u ItemUpdate) Apply(it *Item) {
	if u.Name != nil {
		it.Name = *u.Name
	}
	if u.CategoryID != nil {
		it.CategoryID = *u.CategoryID
	}
}

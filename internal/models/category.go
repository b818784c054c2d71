package models

import "time"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Code      *string   `gorm:"size:64;uniqueIndex" json:"code"`
	Buffer    int       `gorm:"not null;default:0" json:"buffer"` // low-stock threshold for the sum of item quantities
	Items     []Item    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryUpdate struct {
	Name   *string `json:"name"`
	Code   *string `json:"code"`
	Buffer *int    `json:"buffer"`
}

// Apply copies the fields present in u onto c.
func (u CategoryUpdate) Apply(c *Category) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Code != nil {
		if *u.Code == "" {
			c.Code = nil
		} else {
			code := *u.Code
			c.Code = &code
		}
	}
	if u.Buffer != nil {
		c.Buffer = *u.Buffer
	}
}

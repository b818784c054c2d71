package models

import "time"

// EmailRecipient receives every notification while Active, on top of the
// addresses configured in EMAIL_TO_DEFAULT.
type EmailRecipient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

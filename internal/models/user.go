package models

import "time"

type UserRole string

const (
	RoleStaff UserRole = "staff"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	Name         string    `gorm:"size:120;not null"`
	Email        *string   `gorm:"size:255;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         UserRole  `gorm:"size:32;not null;default:staff"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserUpdate struct {
	Name     *string   `json:"name"`
	Email    *string   `json:"email"`
	Role     *UserRole `json:"role"`
	IsAdmin  *bool     `json:"is_admin"`
	Password *string   `json:"password"`
}

// Apply merges everything except the password, which has to be hashed by the caller.
func (u UserUpdate) Apply(usr *User) {
	if u.Name != nil {
		usr.Name = *u.Name
	}
	if u.Email != nil {
		if *u.Email == "" {
			usr.Email = nil
		} else {
			email := *u.Email
			usr.Email = &email
		}
	}
	if u.Role != nil {
		usr.Role = *u.Role
	}
	if u.IsAdmin != nil {
		usr.IsAdmin = *u.IsAdmin
	}
}

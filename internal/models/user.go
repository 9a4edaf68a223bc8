package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleAR     UserRole = "ar"
	RoleArtist UserRole = "artist"
	RoleUser   UserRole = "user"
)

// IsPrivileged reports whether the role may see every contract.
func (r UserRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleAR
}

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Name        string    `gorm:"not null" json:"name"`
	Role        UserRole  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	LegalName   string    `json:"legal_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `gorm:"type:text" json:"address,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

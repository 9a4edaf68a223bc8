package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artist is a public artist profile, optionally owned by a user account.
type Artist struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Release is a published record (single, EP, album).
type Release struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Type        string     `gorm:"type:varchar(20)" json:"type"` // single, ep, album
	Genre       string     `json:"genre"`
	ISRC        string     `gorm:"type:varchar(15)" json:"isrc,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	ArtistID    *uuid.UUID `gorm:"type:uuid;index" json:"artist_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r *Release) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Demo is an unreleased submission a contract can be drafted against.
type Demo struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Genre     string     `json:"genre"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (d *Demo) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Contract is a royalty split agreement for a release or demo.
type Contract struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"` // owning account
	ArtistID  *uuid.UUID `gorm:"type:uuid;index" json:"artist_id,omitempty"`
	ReleaseID *uuid.UUID `gorm:"type:uuid;index" json:"release_id,omitempty"`
	DemoID    *uuid.UUID `gorm:"type:uuid;index" json:"demo_id,omitempty"`
	Title     string     `json:"title,omitempty"`

	// Fractions of gross revenue, summing to 1.0.
	ArtistShare float64 `gorm:"not null;default:0.5" json:"artist_share"`
	LabelShare  float64 `gorm:"not null;default:0.5" json:"label_share"`

	// Relative pointer to the signed upload, e.g. private/uploads/contracts/<file>.
	PDFURL             *string        `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	Notes              string         `gorm:"type:text" json:"notes"`
	PrimaryArtistEmail string         `json:"primary_artist_email,omitempty"`
	FeaturedArtists    datatypes.JSON `gorm:"type:jsonb" json:"featured_artists,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Artist   *Artist   `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	Release  *Release  `gorm:"foreignKey:ReleaseID" json:"release,omitempty"`
	Demo     *Demo     `gorm:"foreignKey:DemoID" json:"demo,omitempty"`
	Splits   []Split   `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"splits,omitempty"`
	Earnings []Earning `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasStoredPDF reports whether a signed document was uploaded.
func (c *Contract) HasStoredPDF() bool {
	return c.PDFURL != nil && *c.PDFURL != ""
}

// Split is one contributor's share of the artist pool, in percent.
type Split struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ContractID uuid.UUID  `gorm:"type:uuid;not null;index" json:"contract_id"`
	Name       string     `gorm:"not null" json:"name"`
	Role       string     `gorm:"type:varchar(20)" json:"role,omitempty"`
	Percentage float64    `gorm:"not null" json:"percentage"`
	Email      string     `json:"email,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ArtistID   *uuid.UUID `gorm:"type:uuid;index" json:"artist_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relations
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Artist *Artist `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
}

func (s *Split) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Earning is a royalty statement line. Deleting a contract removes its earnings.
type Earning struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ContractID uuid.UUID `gorm:"type:uuid;not null;index" json:"contract_id"`
	Period     string    `gorm:"type:varchar(7);not null" json:"period"` // YYYY-MM
	Amount     float64   `gorm:"not null" json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *Earning) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

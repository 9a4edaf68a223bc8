package services

import (
	"github.com/google/uuid"
	"github.com/halcyonlabel/backend/internal/models"
	"github.com/halcyonlabel/backend/pkg/validation"
)

// Requester is the authenticated identity behind a request.
type Requester struct {
	UserID uuid.UUID
	Email  string
	Role   models.UserRole
}

// RequesterFromUser builds a Requester from a loaded account.
func RequesterFromUser(u *models.User) *Requester {
	return &Requester{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// CanAccessContract reports whether r may fetch the contract's document.
// The contract must be loaded with its artist and split rows.
func CanAccessContract(r *Requester, c *models.Contract) bool {
	if r == nil || c == nil {
		return false
	}
	if r.Role.IsPrivileged() {
		return true
	}
	if r.UserID != uuid.Nil {
		if sameID(c.UserID, r.UserID) {
			return true
		}
		if c.Artist != nil && sameID(c.Artist.UserID, r.UserID) {
			return true
		}
		for _, s := range c.Splits {
			if sameID(s.UserID, r.UserID) {
				return true
			}
		}
	}
	if !validation.ValidateEmail(c.PrimaryArtistEmail) {
		return false
	}
	return validation.SameEmail(c.PrimaryArtistEmail, r.Email)
}

func sameID(id *uuid.UUID, want uuid.UUID) bool {
	return id != nil && *id == want
}

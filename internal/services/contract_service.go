package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/halcyonlabel/backend/internal/models"
	"gorm.io/gorm"
)

// ContractLoader loads a contract with everything document synthesis needs.
type ContractLoader interface {
	LoadContract(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

type ContractService struct {
	db *gorm.DB
}

func NewContractService(db *gorm.DB) *ContractService {
	return &ContractService{db: db}
}

// LoadContract returns the contract with its owner, artist owner, release,
// demo and split rows (with their linked users and artists) preloaded.
func (s *ContractService) LoadContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Artist.User").
		Preload("Release").
		Preload("Demo").
		Preload("Splits", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Splits.User").
		Preload("Splits.Artist.User").
		First(&contract, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("load contract %s: %w", id, err)
	}
	return &contract, nil
}


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/halcyonlabel/backend/internal/models"
	"github.com/halcyonlabel/backend/internal/services"
	"github.com/halcyonlabel/backend/pkg/validation"
	"github.com/spf13/cobra"
)

type contractSource struct {
	file string
	id   string
}

func (s *contractSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "contract JSON export (as returned by the API)")
	cmd.Flags().StringVar(&s.id, "id", "", "contract id to load from the database")
}

// load reads the contract from a JSON export, or from the database when an
// id is given.
func (s *contractSource) load(ctx context.Context, c *cliContext) (*models.Contract, error) {
	switch {
	case s.file != "" && s.id != "":
		return nil, errors.New("use either --file or --id, not both")
	case s.file != "":
		return readContractFile(s.file)
	case s.id != "":
		id, ok := validation.ParseID(s.id)
		if !ok {
			return nil, fmt.Errorf("invalid contract id %q", s.id)
		}
		db, err := models.InitDB(c.settings(), c.logger())
		if err != nil {
			return nil, err
		}
		return services.NewContractService(db).LoadContract(ctx, id)
	default:
		return nil, errors.New("one of --file or --id is required")
	}
}

func readContractFile(path string) (*models.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract: %w", err)
	}
	var contract models.Contract
	if err := json.Unmarshal(data, &contract); err != nil {
		return nil, fmt.Errorf("parse contract %s: %w", path, err)
	}
	return &contract, nil
}

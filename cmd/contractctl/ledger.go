package main

import (
	"fmt"

	"github.com/halcyonlabel/backend/internal/pkg/pdfgen"
	"github.com/halcyonlabel/backend/internal/pkg/splits"
	"github.com/halcyonlabel/backend/internal/services"
	"github.com/spf13/cobra"
)

func newLedgerCommand(ctx *cliContext) *cobra.Command {
	var src contractSource

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the reconciled contributor ledger of a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := src.load(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			ledger := splits.Reconcile(contract.FeaturedArtists, services.SplitRows(contract.Splits))
			fmt.Fprint(cmd.OutOrStdout(), formatLedger(ledger, contract.ArtistShare))
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func formatLedger(ledger *splits.Ledger, artistShare float64) string {
	headers := []string{"", "Name", "Role", "Artist %", "Gross %", "Legal name", "Phone", "Address", "Email"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight}

	rows := make([][]string, 0, len(ledger.Contributors))
	for _, c := range ledger.Contributors {
		marker := ""
		if c.IsPrimary {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			c.Name,
			string(c.Role),
			pdfgen.FormatPercent(c.PercentageOfArtistShare),
			pdfgen.FormatPercent(c.GrossPercentage(artistShare)),
			pdfgen.Truncate(c.LegalName, 28),
			c.Phone,
			pdfgen.Truncate(c.Address, 32),
			c.Email,
		})
	}

	status := "balanced"
	switch {
	case ledger.Scaled:
		status = "over 100%, scaled down"
	case !ledger.Balanced:
		status = "unbalanced"
	}
	return fmt.Sprintf("%s\nsource: %s  total: %s  status: %s\n",
		renderTable(headers, rows, aligns), ledger.Source, pdfgen.FormatPercent(ledger.Total), status)
}

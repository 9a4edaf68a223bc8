package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/halcyonlabel/backend/internal/services"
	"github.com/spf13/cobra"
)

func newResolveCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <pointer>",
		Short: "Show where a signed upload pointer resolves on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage := services.NewStorageService(services.DefaultStorageRoots(ctx.settings()), nil, ctx.logger())
			candidates := storage.ContractCandidates(args[0])
			if len(candidates) == 0 {
				return fmt.Errorf("pointer %q is not a valid contract upload path", args[0])
			}

			rows := make([][]string, 0, len(candidates))
			chosen := false
			for i, path := range candidates {
				state, size := "missing", ""
				if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
					state, size = "found", humanize.Bytes(uint64(info.Size()))
					if !chosen {
						state, chosen = "served", true
					}
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), path, state, size})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Candidate", "State", "Size"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

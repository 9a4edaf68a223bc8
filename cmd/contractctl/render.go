package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/halcyonlabel/backend/internal/pkg/pdfgen"
	"github.com/halcyonlabel/backend/internal/services"
	"github.com/spf13/cobra"
)

func newRenderCommand(ctx *cliContext) *cobra.Command {
	var src contractSource
	var out string
	var legacyOnly bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a contract agreement to a PDF file",
		Long: `Render synthesizes the agreement exactly like the API does when no signed
upload exists: template overlay first, legacy layout when the template cannot
be used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := src.load(cmd.Context(), ctx)
			if err != nil {
				return err
			}

			cfg := ctx.settings()
			layout, err := pdfgen.LoadLayout(cfg.ContractLayoutPath)
			if err != nil {
				return err
			}
			var template services.Renderer
			if !legacyOnly {
				template = pdfgen.NewTemplateRenderer(cfg.ContractTemplatePath, layout)
			}
			docs := services.NewDocumentService(nil, nil, template, pdfgen.NewLegacyGenerator(),
				services.NewQRService(cfg), services.LabelInfoFromConfig(cfg), ctx.logger())

			data, source, err := docs.Synthesize(contract)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("contract-%s-generated.pdf", contract.ID)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %s renderer)\n", out, humanize.Bytes(uint64(len(data))), source)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default contract-<id>-generated.pdf)")
	cmd.Flags().BoolVar(&legacyOnly, "legacy", false, "skip the template and use the legacy layout")
	return cmd
}

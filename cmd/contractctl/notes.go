package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/halcyonlabel/backend/internal/pkg/contractnotes"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type decodedNotes struct {
	Details   contractnotes.Details `yaml:"details"`
	UserNotes string                `yaml:"userNotes"`
}

func newNotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Decode or encode the details block stored in contract notes",
	}
	cmd.AddCommand(newNotesDecodeCommand(), newNotesEncodeCommand())
	return cmd
}

func newNotesDecodeCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode notes read from a contract export or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var notes string
			if file != "" {
				contract, err := readContractFile(file)
				if err != nil {
					return err
				}
				notes = contract.Notes
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				notes = string(data)
			}

			details, userNotes := contractnotes.Decode(notes)
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(decodedNotes{Details: details, UserNotes: userNotes}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "contract JSON export (default: read raw notes from stdin)")
	return cmd
}

func newNotesEncodeCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a YAML details document into the notes format",
		Long: `Encode reads a YAML document with "details" and "userNotes" keys (the
output of "notes decode") and prints the notes column value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if input != "" {
				r = strings.NewReader(input)
			}
			var doc decodedNotes
			if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("parse details: %w", err)
			}
			_, err := io.WriteString(cmd.OutOrStdout(), contractnotes.Encode(doc.Details, doc.UserNotes))
			return err
		},
	}
	cmd.Flags().StringVar(&input, "yaml", "", "inline YAML instead of stdin")
	return cmd
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tex-corpus/internal/metadata"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select paper ids from the arXiv metadata snapshot",
	Long: `Select streams the arXiv metadata snapshot (JSON Lines), keeps records
whose categories contain --category and, when --date-floor is set, that were
updated after it, and writes their ids as a JSON array for fetch.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().String("metadata", "", "path to the metadata snapshot (required)")
	selectCmd.Flags().String("out", "arxiv_ids.json", "where to write the selected ids")
	addFilterFlags(selectCmd)
	selectCmd.MarkFlagRequired("metadata")

	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := corpusConfig(viper.GetViper())
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("metadata")
	out, _ := cmd.Flags().GetString("out")

	records, seen, err := metadata.SelectFile(cmd.Context(), path, metadata.FilterFrom(cfg))
	if err != nil {
		return err
	}
	if err := metadata.WriteIDs(out, metadata.IDs(records)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "selected %d of %d records -> %s\n", len(records), seen, out)
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tex-corpus/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish DIR",
	Short: "Publish the stored corpus to a directory",
	Long: `Publish writes the stored documents to DIR/documents.jsonl, one
{"id","content"} object per line, with DIR/manifest.yaml describing the run.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(viper.GetString("corpus.store_dir"))
		if err != nil {
			return err
		}
		defer st.Close()
		return publish(cmd.Context(), cmd.OutOrStdout(), st, args[0], nil)
	},
}

func init() {
	publishCmd.Flags().String("store-dir", "corpus", "corpus store directory")

	rootCmd.AddCommand(publishCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tex-corpus/internal/corpus"
	"github.com/pdiddy/tex-corpus/internal/store"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Reassemble documents from stored paper records",
	Long: `Assemble loads the paper records saved by build, rebuilds each document
(auxiliary files in order, main file last), and replaces the stored
documents. Use --publish to export them in the same run.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().String("store-dir", "corpus", "corpus store directory")
	assembleCmd.Flags().String("publish", "", "publish the corpus to this directory")

	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	storeDir := viper.GetString("corpus.store_dir")
	publishDir, _ := cmd.Flags().GetString("publish")
	return reassemble(cmd.Context(), cmd.OutOrStdout(), storeDir, publishDir)
}

func reassemble(ctx context.Context, w io.Writer, storeDir, publishDir string) error {
	st, err := store.Open(storeDir)
	if err != nil {
		return err
	}
	defer st.Close()

	papers, err := st.LoadPapers(ctx)
	if err != nil {
		return err
	}
	docs, err := corpus.Reassemble(ctx, papers)
	if err != nil {
		return err
	}
	if err := st.SaveDocuments(ctx, docs); err != nil {
		return fmt.Errorf("saving documents: %w", err)
	}
	fmt.Fprintf(w, "assembled %d documents in %s\n", len(docs), st.Dir())

	if publishDir == "" {
		return nil
	}
	return publish(ctx, w, st, publishDir, nil)
}

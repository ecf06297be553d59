// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/tex-corpus/internal/corpus"
	"github.com/pdiddy/tex-corpus/internal/metadata"
	"github.com/pdiddy/tex-corpus/internal/sourcetree"
	"github.com/pdiddy/tex-corpus/internal/store"
	"github.com/pdiddy/tex-corpus/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Detect main files and assemble the corpus",
	Long: `Build reads each selected paper from <papers-dir>/<id>/, rejects papers
with a file over --size-ceiling characters, more than --file-count-ceiling
files, or no main file, and assembles one document per remaining paper.
Paper records and documents replace the contents of the store; rejection
counts by reason are printed at the end.

Papers come from --metadata (filtered by --category and --date-floor) or
from an --ids list written by select.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("metadata", "", "path to the metadata snapshot")
	buildCmd.Flags().String("ids", "", "JSON array of ids written by select")
	buildCmd.Flags().String("papers-dir", "papers", "raw source tree root")
	buildCmd.Flags().String("store-dir", "corpus", "corpus store directory")
	buildCmd.Flags().String("publish", "", "publish the corpus to this directory")
	addCorpusFlags(buildCmd)
	addFilterFlags(buildCmd)
	buildCmd.MarkFlagsMutuallyExclusive("metadata", "ids")
	buildCmd.MarkFlagsOneRequired("metadata", "ids")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := corpusConfig(viper.GetViper())
	if err != nil {
		return err
	}
	metaPath, _ := cmd.Flags().GetString("metadata")
	idsPath, _ := cmd.Flags().GetString("ids")
	publishDir, _ := cmd.Flags().GetString("publish")

	records, err := loadRecords(cmd.Context(), cfg, metaPath, idsPath)
	if err != nil {
		return err
	}
	logger.Info("building corpus",
		zap.Int("papers", len(records)),
		zap.String("papers_dir", cfg.PapersDir),
		zap.Int("workers", cfg.Workers))

	return buildCorpus(cmd.Context(), cmd.OutOrStdout(), cfg, records, publishDir)
}

func loadRecords(ctx context.Context, cfg types.CorpusConfig, metaPath, idsPath string) ([]types.MetadataRecord, error) {
	if idsPath != "" {
		ids, err := metadata.ReadIDs(idsPath)
		if err != nil {
			return nil, err
		}
		return metadata.FromIDs(ids), nil
	}
	records, _, err := metadata.SelectFile(ctx, metaPath, metadata.FilterFrom(cfg))
	return records, err
}

// buildCorpus runs the pipeline over records and saves the result.
func buildCorpus(ctx context.Context, w io.Writer, cfg types.CorpusConfig, records []types.MetadataRecord, publishDir string) error {
	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return err
	}
	defer st.Close()

	b := corpus.NewBuilder(cfg, sourcetree.NewDir(cfg.PapersDir), logger)
	result, err := b.Run(ctx, records)
	if err != nil {
		return err
	}

	if err := st.SavePapers(ctx, result.Papers); err != nil {
		return fmt.Errorf("saving papers: %w", err)
	}
	if err := st.SaveDocuments(ctx, result.Documents); err != nil {
		return fmt.Errorf("saving documents: %w", err)
	}
	if err := corpus.WriteReport(w, result); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d of %d papers assembled into %s\n", result.Accepted(), result.Total(), st.Dir())

	if publishDir == "" {
		return nil
	}
	return publish(ctx, w, st, publishDir, &cfg)
}

func publish(ctx context.Context, w io.Writer, st *store.Store, dir string, cfg *types.CorpusConfig) error {
	m, err := st.Publish(ctx, dir, cfg)
	if err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	fmt.Fprintf(w, "published %d documents to %s (run %s)\n", m.Documents, dir, m.RunID)
	return nil
}

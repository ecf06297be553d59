// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tex-corpus/internal/fetch"
	"github.com/pdiddy/tex-corpus/internal/metadata"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [ids...]",
	Short: "Download LaTeX sources from arXiv",
	Long: `Fetch downloads each paper's e-print archive from arXiv, keeps its
top-level .tex files, and writes them to <papers-dir>/<id>/. Papers that
already have a directory are skipped. Rate-limit responses are retried
with backoff.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("ids", "", "JSON array of ids written by select")
	fetchCmd.Flags().String("papers-dir", "papers", "raw source tree root")
	fetchCmd.Flags().Int("fetch-workers", defaultFetchConns, "concurrent downloads")
	fetchCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	fetchCmd.Flags().Int("max-retries", 0, "retries on HTTP 429 (0 = default)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ids := args
	if path, _ := cmd.Flags().GetString("ids"); path != "" {
		fromFile, err := metadata.ReadIDs(path)
		if err != nil {
			return err
		}
		ids = append(ids, fromFile...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide paper ids as arguments or with --ids")
	}

	cfg := fetchConfig(viper.GetViper())
	client := &http.Client{Timeout: cfg.Timeout}

	result, err := fetch.New(client, cfg, logger).Batch(cmd.Context(), ids, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed to fetch", result.Failed)
	}
	return nil
}

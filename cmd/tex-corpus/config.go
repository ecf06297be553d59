// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultUserAgent  = "tex-corpus/0.1"
	defaultFetchConns = 4
)

// flagKeys maps command-line flags to config keys. A flag only overrides
// the config file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"size-ceiling":       "corpus.size_ceiling",
	"file-count-ceiling": "corpus.file_count_ceiling",
	"category":           "corpus.category_filter",
	"date-floor":         "corpus.date_floor",
	"workers":            "corpus.workers",
	"papers-dir":         "corpus.papers_dir",
	"store-dir":          "corpus.store_dir",
	"fetch-workers":      "fetch.workers",
	"timeout":            "fetch.timeout",
	"max-retries":        "fetch.max_retries",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.size_ceiling", types.DefaultSizeCeiling)
	v.SetDefault("corpus.file_count_ceiling", types.DefaultFileCountCeiling)
	v.SetDefault("corpus.category_filter", types.DefaultCategoryFilter)
	v.SetDefault("corpus.date_floor", "")
	v.SetDefault("corpus.workers", runtime.NumCPU())
	v.SetDefault("corpus.papers_dir", "papers")
	v.SetDefault("corpus.store_dir", "corpus")
	v.SetDefault("fetch.workers", defaultFetchConns)
	v.SetDefault("fetch.timeout", defaultTimeout)
	v.SetDefault("fetch.max_retries", 0)
	v.SetDefault("fetch.user_agent", defaultUserAgent)
}

// bindFlags binds the command's flags that have a config key.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// corpusConfig resolves and validates the corpus settings.
func corpusConfig(v *viper.Viper) (types.CorpusConfig, error) {
	floor, err := types.ParseDateFloor(v.GetString("corpus.date_floor"))
	if err != nil {
		return types.CorpusConfig{}, err
	}
	cfg := types.CorpusConfig{
		SizeCeiling:      v.GetInt("corpus.size_ceiling"),
		FileCountCeiling: v.GetInt("corpus.file_count_ceiling"),
		CategoryFilter:   v.GetString("corpus.category_filter"),
		DateFloor:        floor,
		Workers:          v.GetInt("corpus.workers"),
		PapersDir:        v.GetString("corpus.papers_dir"),
		StoreDir:         v.GetString("corpus.store_dir"),
	}
	if err := cfg.Validate(); err != nil {
		return types.CorpusConfig{}, err
	}
	return cfg, nil
}

// fetchConfig resolves the download settings.
func fetchConfig(v *viper.Viper) types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   v.GetDuration("fetch.timeout"),
			UserAgent: v.GetString("fetch.user_agent"),
		},
		PapersDir:  v.GetString("corpus.papers_dir"),
		Workers:    v.GetInt("fetch.workers"),
		MaxRetries: v.GetInt("fetch.max_retries"),
	}
}

// addCorpusFlags registers the guard and filter flags shared by commands.
func addCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().Int("size-ceiling", types.DefaultSizeCeiling, "reject papers with a file longer than this many characters")
	cmd.Flags().Int("file-count-ceiling", types.DefaultFileCountCeiling, "reject papers with more files than this")
	cmd.Flags().Int("workers", runtime.NumCPU(), "papers processed concurrently")
}

// addFilterFlags registers the metadata filter flags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", types.DefaultCategoryFilter, "keep records whose categories contain this substring")
	cmd.Flags().String("date-floor", "", "keep records updated after this date (YYYY-MM-DD)")
}

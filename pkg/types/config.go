// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"runtime"
	"time"
)

// Defaults for the corpus build. The size ceiling counts characters
// (Unicode code points), not bytes.
const (
	DefaultSizeCeiling      = 10_000_000
	DefaultFileCountCeiling = 10
	DefaultCategoryFilter   = "cs."
)

// DateLayout is the layout of update_date in the metadata snapshot and of
// the date_floor option.
const DateLayout = "2006-01-02"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tex-corpus/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CorpusConfig holds settings for selecting, guarding, and assembling papers.
type CorpusConfig struct {
	// SizeCeiling is the largest accepted file, in characters.
	SizeCeiling int `json:"size_ceiling" yaml:"size_ceiling"`

	// FileCountCeiling is the largest accepted number of files per paper.
	FileCountCeiling int `json:"file_count_ceiling" yaml:"file_count_ceiling"`

	// CategoryFilter must appear as a substring of a record's categories.
	CategoryFilter string `json:"category_filter" yaml:"category_filter"`

	// DateFloor excludes records updated on or before it. Zero disables it.
	DateFloor time.Time `json:"date_floor,omitempty" yaml:"date_floor,omitempty"`

	// Workers is the number of papers processed concurrently.
	Workers int `json:"workers" yaml:"workers"`

	// PapersDir is the raw source tree root (contains <id>/<file>.tex).
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// StoreDir holds the corpus database.
	StoreDir string `json:"store_dir" yaml:"store_dir"`
}

// DefaultCorpusConfig returns a CorpusConfig with every default applied.
func DefaultCorpusConfig() CorpusConfig {
	return CorpusConfig{
		SizeCeiling:      DefaultSizeCeiling,
		FileCountCeiling: DefaultFileCountCeiling,
		CategoryFilter:   DefaultCategoryFilter,
		Workers:          runtime.NumCPU(),
		PapersDir:        "papers",
		StoreDir:         "corpus",
	}
}

// Validate reports the first invalid setting.
func (c CorpusConfig) Validate() error {
	if c.SizeCeiling < 0 {
		return fmt.Errorf("size_ceiling must not be negative, got %d", c.SizeCeiling)
	}
	if c.FileCountCeiling < 0 {
		return fmt.Errorf("file_count_ceiling must not be negative, got %d", c.FileCountCeiling)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// ParseDateFloor parses a date_floor option. An empty string yields the
// zero time, which disables the floor.
func ParseDateFloor(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date_floor %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FetchConfig holds settings for downloading paper sources.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// PapersDir is the raw source tree root that fetched papers are written to.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// Workers is the number of concurrent downloads.
	Workers int `json:"workers" yaml:"workers"`

	// MaxRetries bounds retries on HTTP 429 (0 = default).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata streams the arXiv metadata snapshot (JSON Lines) and
// selects the papers that go into the corpus.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

// snapshotRecord mirrors one line of the snapshot. update_date is a bare
// date, so it is decoded as a string.
type snapshotRecord struct {
	ID         string `json:"id"`
	Categories string `json:"categories"`
	UpdateDate string `json:"update_date"`
	Title      string `json:"title"`
	Authors    string `json:"authors"`
	Abstract   string `json:"abstract"`
}

// Filter selects records by category substring and update date.
type Filter struct {
	// Category must be a substring of the record's categories. Empty
	// matches everything.
	Category string

	// DateFloor excludes records updated on or before it. Zero disables it.
	DateFloor time.Time
}

// FilterFrom extracts the record filter from a corpus config.
func FilterFrom(cfg types.CorpusConfig) Filter {
	return Filter{Category: cfg.CategoryFilter, DateFloor: cfg.DateFloor}
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec types.MetadataRecord) bool {
	if !strings.Contains(rec.Categories, f.Category) {
		return false
	}
	if !f.DateFloor.IsZero() && !rec.UpdateDate.After(f.DateFloor) {
		return false
	}
	return true
}

// Scan decodes records from r in order and calls fn for each one. It stops
// at the first decode error, the first error from fn, or when ctx is done.
func Scan(ctx context.Context, r io.Reader, fn func(types.MetadataRecord) error) error {
	dec := json.NewDecoder(r)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw snapshotRecord
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding metadata record %d: %w", n, err)
		}
		if raw.ID == "" {
			return fmt.Errorf("metadata record %d: missing id", n)
		}

		rec := types.MetadataRecord{
			ID:         raw.ID,
			Categories: raw.Categories,
			Title:      strings.TrimSpace(raw.Title),
			Authors:    strings.TrimSpace(raw.Authors),
			Abstract:   strings.TrimSpace(raw.Abstract),
		}
		if raw.UpdateDate != "" {
			t, err := time.Parse(types.DateLayout, raw.UpdateDate)
			if err != nil {
				return fmt.Errorf("metadata record %d (%s): parsing update_date %q: %w", n, raw.ID, raw.UpdateDate, err)
			}
			rec.UpdateDate = t
		}

		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Select returns the records of r that pass f, in order. The second return
// value is the number of records read.
func Select(ctx context.Context, r io.Reader, f Filter) ([]types.MetadataRecord, int, error) {
	var selected []types.MetadataRecord
	seen := 0
	err := Scan(ctx, r, func(rec types.MetadataRecord) error {
		seen++
		if f.Match(rec) {
			selected = append(selected, rec)
		}
		return nil
	})
	if err != nil {
		return nil, seen, err
	}
	return selected, seen, nil
}

// SelectFile opens the snapshot at path and selects from it.
func SelectFile(ctx context.Context, path string, f Filter) ([]types.MetadataRecord, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening metadata: %w", err)
	}
	defer file.Close()
	return Select(ctx, file, f)
}

// IDs returns the ids of records in order.
func IDs(records []types.MetadataRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// FromIDs builds bare records for papers known only by id.
func FromIDs(ids []string) []types.MetadataRecord {
	records := make([]types.MetadataRecord, len(ids))
	for i, id := range ids {
		records[i] = types.MetadataRecord{ID: id}
	}
	return records
}

// WriteIDs writes ids to path as a JSON array through a temp file.
func WriteIDs(path string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling ids: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".ids-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing ids: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadIDs reads a JSON array of ids written by WriteIDs.
func ReadIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ids: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parsing ids %s: %w", path, err)
	}
	return ids, nil
}

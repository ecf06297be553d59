// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

// Published file names.
const (
	DocumentsFile = "documents.jsonl"
	ManifestFile  = "manifest.yaml"
)

// Manifest describes a published corpus.
type Manifest struct {
	RunID     string              `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	Documents int                 `json:"documents" yaml:"documents"`
	Bytes     int64               `json:"bytes" yaml:"bytes"`
	Source    string              `json:"source" yaml:"source"`
	Config    *types.CorpusConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// Publish writes the stored documents to dir as documents.jsonl, one
// {"id","content"} object per line, and a manifest.yaml describing the
// run. cfg is recorded in the manifest when non-nil. Both files are
// written to temp files and renamed into place.
func (s *Store) Publish(ctx context.Context, dir string, cfg *types.CorpusConfig) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating publish directory: %w", err)
	}

	m := &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Source:    s.dir,
		Config:    cfg,
	}

	err := writeAtomic(filepath.Join(dir, DocumentsFile), func(f *os.File) error {
		bw := bufio.NewWriter(f)
		enc := json.NewEncoder(bw)
		enc.SetEscapeHTML(false)
		err := s.eachDocument(ctx, func(d types.AssembledDocument) error {
			if err := enc.Encode(d); err != nil {
				return fmt.Errorf("encoding document %s: %w", d.ID, err)
			}
			m.Documents++
			m.Bytes += int64(len(d.Content))
			return nil
		})
		if err != nil {
			return err
		}
		return bw.Flush()
	})
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	err = writeAtomic(filepath.Join(dir, ManifestFile), func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ReadPublished loads a corpus written by Publish.
func ReadPublished(dir string) (*Manifest, []types.AssembledDocument, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parsing manifest: %w", err)
	}

	f, err := os.Open(filepath.Join(dir, DocumentsFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening documents: %w", err)
	}
	defer f.Close()

	var docs []types.AssembledDocument
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var d types.AssembledDocument
		if err := dec.Decode(&d); err != nil {
			return nil, nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, d)
	}
	return &m, docs, nil
}

// writeAtomic writes path through a temp file in the same directory.
func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".publish-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := write(tmp)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), writeErr)
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

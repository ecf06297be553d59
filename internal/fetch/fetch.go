// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads arXiv source archives and unpacks their
// top-level .tex files into the raw source tree.
package fetch

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/tex-corpus/internal/httputil"
	"github.com/pdiddy/tex-corpus/pkg/types"
)

// maxArchiveBytes caps a decompressed source archive.
const maxArchiveBytes = 1 << 30

var (
	// ErrNotGzip is returned when the e-print is not a gzip stream (for
	// example a PDF-only submission).
	ErrNotGzip = errors.New("source is not gzip compressed")

	// ErrNoTeX is returned when the archive has no top-level .tex file.
	ErrNoTeX = errors.New("no top-level .tex files in source")
)

// BatchResult holds the outcome of a batch fetch.
type BatchResult struct {
	Fetched int
	Skipped int
	Failed  int
}

// Total returns the number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Fetched + r.Skipped + r.Failed
}

// HasFailures reports whether any paper failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Fetcher downloads paper sources into PapersDir/<id>/.
type Fetcher struct {
	cfg     types.FetchConfig
	retrier *httputil.Retrier
	log     *zap.Logger
}

// New returns a Fetcher. A nil logger discards log output.
func New(client *http.Client, cfg types.FetchConfig, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		cfg:     cfg,
		retrier: &httputil.Retrier{Client: client, MaxRetries: cfg.MaxRetries, Log: log},
		log:     log,
	}
}

// Paper downloads one paper's source. It skips papers whose directory
// already exists; skipped reports whether it did.
func (f *Fetcher) Paper(ctx context.Context, identifier string) (skipped bool, err error) {
	id, err := NormalizeID(identifier)
	if err != nil {
		return false, err
	}
	dest := filepath.Join(f.cfg.PapersDir, filepath.FromSlash(id))
	if _, err := os.Stat(dest); err == nil {
		return true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, SourceURL(id), nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.retrier.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("downloading %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL)
	}

	files, err := extractTeX(resp.Body)
	if err != nil {
		return false, fmt.Errorf("extracting %s: %w", id, err)
	}
	if err := writePaper(f.cfg.PapersDir, dest, files); err != nil {
		return false, fmt.Errorf("writing %s: %w", id, err)
	}
	f.log.Debug("paper fetched", zap.String("paper_id", id), zap.Int("files", len(files)))
	return false, nil
}

// Batch fetches identifiers with cfg.Workers concurrent downloads, writing
// one status line per identifier to w. Individual failures are counted,
// not returned; the error is non-nil only when ctx is done.
func (f *Fetcher) Batch(ctx context.Context, identifiers []string, w io.Writer) (BatchResult, error) {
	workers := f.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range identifiers {
		if gctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			skipped, err := f.Paper(gctx, id)
			if cerr := gctx.Err(); cerr != nil {
				return cerr
			}
			mu.Lock()
			switch {
			case err != nil:
				result.Failed++
			case skipped:
				result.Skipped++
			default:
				result.Fetched++
			}
			mu.Unlock()

			switch {
			case err != nil:
				f.log.Info("fetch failed", zap.String("paper_id", id), zap.Error(err))
				report("failed:  %s (%v)\n", id, err)
			case skipped:
				report("skipped: %s (already exists)\n", id)
			default:
				report("fetched: %s\n", id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	fmt.Fprintf(w, "\nBatch summary: %d fetched, %d skipped, %d failed (total: %d)\n",
		result.Fetched, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// extractTeX reads a gzipped tar stream and returns its top-level .tex
// files in archive order.
func extractTeX(r io.Reader) (types.FileSet, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
		return nil, ErrNotGzip
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("opening gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(io.LimitReader(gz, maxArchiveBytes))
	var files types.FileSet
	seen := make(map[string]bool)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(hdr.Name, "./")
		if !strings.HasSuffix(name, ".tex") || strings.Contains(name, "/") || seen[name] {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		seen[name] = true
		files = append(files, types.SourceFile{Name: name, Content: string(data)})
	}
	if len(files) == 0 {
		return nil, ErrNoTeX
	}
	return files, nil
}

// writePaper writes files into a temp directory under root and renames it
// to dest, so a paper directory never holds a partial download.
func writePaper(root, dest string, files types.FileSet) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.MkdirTemp(root, ".fetch-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	for _, file := range files {
		p := filepath.Join(tmp, path.Base(file.Name))
		if err := os.WriteFile(p, []byte(file.Content), 0o644); err != nil {
			os.RemoveAll(tmp)
			return fmt.Errorf("writing %s: %w", file.Name, err)
		}
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("renaming temp directory: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/tex-corpus/internal/sourcetree"
	"github.com/pdiddy/tex-corpus/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type tarEntry struct {
	name    string
	content string
	dir     bool
}

func tarGz(t *testing.T, entries ...tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.content)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func sampleArchive(t *testing.T) []byte {
	return tarGz(t,
		tarEntry{name: "./main.tex", content: "\\begin{document}"},
		tarEntry{name: "macros.tex", content: "\\newcommand"},
		tarEntry{name: "refs.bib", content: "@article{}"},
		tarEntry{name: "sections/", dir: true},
		tarEntry{name: "sections/intro.tex", content: "intro"},
	)
}

// newTestServer serves archives keyed by e-print path and counts requests.
func newTestServer(t *testing.T, archives map[string][]byte, calls *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		id := strings.TrimPrefix(r.URL.Path, "/e-print/")
		data, ok := archives[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-eprint-tar")
		w.Write(data)
	}))
	t.Cleanup(ts.Close)

	orig := eprintBase
	eprintBase = ts.URL + "/e-print/"
	t.Cleanup(func() { eprintBase = orig })
	return ts
}

func testFetcher(t *testing.T, ts *httptest.Server, workers int) (*Fetcher, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "papers")
	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "tex-corpus-test/0.1"},
		PapersDir:  dir,
		Workers:    workers,
	}
	f := New(ts.Client(), cfg, nil)
	f.retrier.BaseDelay = time.Millisecond
	return f, dir
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2301.07041", "2301.07041", false},
		{"arXiv:2301.07041v2", "2301.07041v2", false},
		{"  2301.12345 ", "2301.12345", false},
		{"hep-th/9901001", "hep-th/9901001", false},
		{"math.CO/0406594v1", "math.CO/0406594v1", false},
		{"../etc/passwd", "", true},
		{"10.1145/1234567", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaperExtractsTopLevelTeX(t *testing.T) {
	ts := newTestServer(t, map[string][]byte{"2301.07041": sampleArchive(t)}, nil)
	f, dir := testFetcher(t, ts, 1)

	skipped, err := f.Paper(context.Background(), "arXiv:2301.07041")
	require.NoError(t, err)
	assert.False(t, skipped)

	entries, err := sourcetree.NewDir(dir).Files("2301.07041")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"macros.tex", "main.tex"}, names)

	data, err := os.ReadFile(filepath.Join(dir, "2301.07041", "main.tex"))
	require.NoError(t, err)
	assert.Equal(t, "\\begin{document}", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".fetch-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPaperOldStyleID(t *testing.T) {
	ts := newTestServer(t, map[string][]byte{"hep-th/9901001": sampleArchive(t)}, nil)
	f, dir := testFetcher(t, ts, 1)

	_, err := f.Paper(context.Background(), "hep-th/9901001")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "hep-th", "9901001", "main.tex"))
	assert.NoError(t, err)
}

func TestPaperSkipsExisting(t *testing.T) {
	var calls int32
	ts := newTestServer(t, map[string][]byte{"2301.07041": sampleArchive(t)}, &calls)
	f, dir := testFetcher(t, ts, 1)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2301.07041"), 0o755))

	skipped, err := f.Paper(context.Background(), "2301.07041")
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPaperFailures(t *testing.T) {
	archives := map[string][]byte{
		"2301.00001": []byte("%PDF-1.4 not a tarball"),
		"2301.00002": tarGz(t, tarEntry{name: "figure.png", content: "png"}, tarEntry{name: "sub/a.tex", content: "x"}),
	}
	ts := newTestServer(t, archives, nil)
	f, dir := testFetcher(t, ts, 1)

	tests := []struct {
		id     string
		target error
		errMsg string
	}{
		{id: "2301.00001", target: ErrNotGzip},
		{id: "2301.00002", target: ErrNoTeX},
		{id: "2301.00003", errMsg: "HTTP 404"},
		{id: "not-an-id", errMsg: "unrecognized arXiv identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := f.Paper(context.Background(), tt.id)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			_, statErr := os.Stat(filepath.Join(dir, tt.id))
			assert.True(t, os.IsNotExist(statErr), "failed fetch must not leave a directory")
		})
	}
}

func TestPaperRetriesRateLimit(t *testing.T) {
	archive := sampleArchive(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(archive)
	}))
	defer ts.Close()
	orig := eprintBase
	eprintBase = ts.URL + "/e-print/"
	defer func() { eprintBase = orig }()

	f, _ := testFetcher(t, ts, 1)
	_, err := f.Paper(context.Background(), "2301.07041")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBatch(t *testing.T) {
	archives := map[string][]byte{
		"2301.00001": sampleArchive(t),
		"2301.00002": sampleArchive(t),
		"2301.00003": sampleArchive(t),
	}
	ts := newTestServer(t, archives, nil)
	f, dir := testFetcher(t, ts, 3)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2301.00003"), 0o755))

	var buf bytes.Buffer
	res, err := f.Batch(context.Background(), []string{"2301.00001", "2301.00002", "2301.00003", "2301.00404"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Fetched: 2, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, 4, res.Total())
	assert.True(t, res.HasFailures())

	out := buf.String()
	assert.Contains(t, out, "fetched: 2301.00001")
	assert.Contains(t, out, "skipped: 2301.00003")
	assert.Contains(t, out, "failed:  2301.00404")
	assert.Contains(t, out, "Batch summary: 2 fetched, 1 skipped, 1 failed (total: 4)")
}

func TestBatchCancelled(t *testing.T) {
	ts := newTestServer(t, map[string][]byte{}, nil)
	f, _ := testFetcher(t, ts, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_, err := f.Batch(ctx, []string{"2301.00001", "2301.00002"}, &buf)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, buf.String(), "Batch summary")
}

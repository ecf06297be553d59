// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus drives intake, main-file detection, and assembly across a
// batch of papers.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/tex-corpus/internal/assemble"
	"github.com/pdiddy/tex-corpus/internal/detect"
	"github.com/pdiddy/tex-corpus/internal/intake"
	"github.com/pdiddy/tex-corpus/internal/sourcetree"
	"github.com/pdiddy/tex-corpus/pkg/types"
)

// Result holds the outcome of a batch. Papers and Documents are parallel
// slices in input order; Rejections are in input order too.
type Result struct {
	Papers     []types.PaperRecord
	Documents  []types.AssembledDocument
	Rejections []types.Rejection
}

// Accepted returns the number of papers in the corpus.
func (r *Result) Accepted() int { return len(r.Documents) }

// Total returns the number of papers processed.
func (r *Result) Total() int { return len(r.Documents) + len(r.Rejections) }

// Counts returns the number of rejections per reason.
func (r *Result) Counts() map[types.RejectReason]int {
	counts := make(map[types.RejectReason]int)
	for _, rej := range r.Rejections {
		counts[rej.Reason]++
	}
	return counts
}

// RejectedIDs returns the rejected paper ids for reason in input order.
func (r *Result) RejectedIDs(reason types.RejectReason) []string {
	var ids []string
	for _, rej := range r.Rejections {
		if rej.Reason == reason {
			ids = append(ids, rej.ID)
		}
	}
	return ids
}

// Builder turns metadata records into paper records and documents.
type Builder struct {
	tree    sourcetree.Tree
	limits  intake.Limits
	workers int
	log     *zap.Logger
}

// NewBuilder returns a Builder reading from tree. A nil logger discards
// log output.
func NewBuilder(cfg types.CorpusConfig, tree sourcetree.Tree, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		tree:    tree,
		limits:  intake.LimitsFrom(cfg),
		workers: workers,
		log:     log,
	}
}

// Process runs one paper through intake, detection, and assembly. A
// *intake.RejectError means the paper is dropped; any other error means
// the source tree failed.
func (b *Builder) Process(meta types.MetadataRecord) (types.PaperRecord, types.AssembledDocument, error) {
	files, err := intake.Guard(b.tree, meta.ID, b.limits)
	if err != nil {
		return types.PaperRecord{}, types.AssembledDocument{}, err
	}

	main, ok := detect.MainFile(files)
	if !ok {
		return types.PaperRecord{}, types.AssembledDocument{},
			intake.Reject(meta.ID, types.RejectNoMainFile, "no candidate among %d files", len(files))
	}

	rec := types.PaperRecord{
		ID:         meta.ID,
		Categories: meta.Categories,
		UpdateDate: meta.UpdateDate,
		Title:      meta.Title,
		Files:      files,
		Main:       main,
	}
	doc, err := assemble.Document(rec)
	if err != nil {
		return types.PaperRecord{}, types.AssembledDocument{}, err
	}
	return rec, doc, nil
}

type accepted struct {
	index int
	paper types.PaperRecord
	doc   types.AssembledDocument
}

type rejected struct {
	index int
	rej   types.Rejection
}

// shard is one worker's private accumulator.
type shard struct {
	accepted []accepted
	rejected []rejected
}

// Run processes records with the configured number of workers. Per-paper
// rejections are collected in the result; a source tree failure or a
// cancelled context aborts the batch and returns no result. Papers in
// flight when the context is cancelled are not emitted.
func (b *Builder) Run(ctx context.Context, records []types.MetadataRecord) (*Result, error) {
	if err := b.tree.Check(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	shards := make([]shard, b.workers)

	g.Go(func() error {
		defer close(jobs)
		for i := range records {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := range shards {
		sh := &shards[w]
		g.Go(func() error {
			for i := range jobs {
				meta := records[i]
				paper, doc, err := b.Process(meta)
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				if err != nil {
					reason, ok := intake.ReasonOf(err)
					if !ok {
						return fmt.Errorf("processing %s: %w", meta.ID, err)
					}
					b.log.Info("paper rejected",
						zap.String("paper_id", meta.ID),
						zap.String("reason", string(reason)),
						zap.Error(err))
					sh.rejected = append(sh.rejected, rejected{i, rejection(meta.ID, reason, err)})
					continue
				}
				b.log.Debug("paper accepted",
					zap.String("paper_id", meta.ID),
					zap.String("main", paper.Main),
					zap.Int("files", len(paper.Files)),
					zap.Int("bytes", len(doc.Content)))
				sh.accepted = append(sh.accepted, accepted{i, paper, doc})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return merge(shards), nil
}

func rejection(id string, reason types.RejectReason, err error) types.Rejection {
	rej := types.Rejection{ID: id, Reason: reason}
	var re *intake.RejectError
	if errors.As(err, &re) {
		rej.Detail = re.Detail
	}
	return rej
}

func merge(shards []shard) *Result {
	var acc []accepted
	var rej []rejected
	for _, sh := range shards {
		acc = append(acc, sh.accepted...)
		rej = append(rej, sh.rejected...)
	}
	sort.Slice(acc, func(i, j int) bool { return acc[i].index < acc[j].index })
	sort.Slice(rej, func(i, j int) bool { return rej[i].index < rej[j].index })

	r := &Result{
		Papers:     make([]types.PaperRecord, len(acc)),
		Documents:  make([]types.AssembledDocument, len(acc)),
		Rejections: make([]types.Rejection, len(rej)),
	}
	for i, a := range acc {
		r.Papers[i] = a.paper
		r.Documents[i] = a.doc
	}
	for i, x := range rej {
		r.Rejections[i] = x.rej
	}
	return r
}

// Reassemble rebuilds documents from stored paper records.
func Reassemble(ctx context.Context, records []types.PaperRecord) ([]types.AssembledDocument, error) {
	docs := make([]types.AssembledDocument, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := assemble.Document(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intake reads a paper's source files from the raw tree and
// applies the size and count guards.
package intake

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/tex-corpus/internal/sourcetree"
	"github.com/pdiddy/tex-corpus/pkg/types"
)

// RejectError is returned for a paper that must be dropped from the corpus.
type RejectError struct {
	ID     string
	Reason types.RejectReason
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.ID, e.Reason, e.Detail)
}

// Reject builds a RejectError.
func Reject(id string, reason types.RejectReason, format string, args ...any) *RejectError {
	return &RejectError{ID: id, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf returns the reject reason carried by err, if any.
func ReasonOf(err error) (types.RejectReason, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

// Limits are the guard ceilings. A zero ceiling means zero is the limit.
type Limits struct {
	SizeCeiling      int
	FileCountCeiling int
}

// LimitsFrom extracts the guard ceilings from a corpus config.
func LimitsFrom(cfg types.CorpusConfig) Limits {
	return Limits{SizeCeiling: cfg.SizeCeiling, FileCountCeiling: cfg.FileCountCeiling}
}

// Guard reads every regular file of paper id and returns them in discovery
// order. Content is always valid UTF-8; see decodeText. Papers without a directory, with any file longer than
// SizeCeiling characters, or with more than FileCountCeiling files are
// rejected as a whole with a *RejectError. Errors that are not a
// *RejectError mean the tree itself failed.
func Guard(tree sourcetree.Tree, id string, limits Limits) (types.FileSet, error) {
	ok, err := tree.Exists(id)
	if err != nil {
		return nil, fmt.Errorf("checking source directory for %s: %w", id, err)
	}
	if !ok {
		return nil, Reject(id, types.RejectNoSourceTree, "no source directory")
	}

	entries, err := tree.Files(id)
	if err != nil {
		return nil, Reject(id, types.RejectUnreadable, "%v", err)
	}

	files := make(types.FileSet, 0, len(entries))
	for _, e := range entries {
		// A rune is at most four bytes, so anything larger cannot fit.
		if e.Size > 4*int64(limits.SizeCeiling) {
			return nil, Reject(id, types.RejectFileTooLarge, "%s is %d bytes", e.Name, e.Size)
		}
		raw, err := e.Open()
		if err != nil {
			return nil, Reject(id, types.RejectUnreadable, "reading %s: %v", e.Name, err)
		}
		content, err := decodeText(raw)
		if err != nil {
			return nil, Reject(id, types.RejectUnreadable, "decoding %s: %v", e.Name, err)
		}
		if tooLong(content, limits.SizeCeiling) {
			return nil, Reject(id, types.RejectFileTooLarge, "%s has more than %d characters", e.Name, limits.SizeCeiling)
		}
		files = append(files, types.SourceFile{Name: e.Name, Content: content})
	}

	if len(files) > limits.FileCountCeiling {
		return nil, Reject(id, types.RejectTooManyFiles, "%d files, limit %d", len(files), limits.FileCountCeiling)
	}
	return files, nil
}

// decodeText returns s unchanged when it is valid UTF-8 and decodes it as
// Latin-1 otherwise. Every byte of a Latin-1 file maps to one character, and
// the result always survives JSON encoding unchanged.
func decodeText(s string) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	return charmap.ISO8859_1.NewDecoder().String(s)
}

// tooLong reports whether s has more than ceiling code points.
func tooLong(s string, ceiling int) bool {
	if len(s) <= ceiling {
		return false
	}
	return utf8.RuneCountInString(s) > ceiling
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble concatenates a paper's files into one training document
// with the main file last.
package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

// Separator follows every auxiliary file in an assembled document.
const Separator = "\n"

// ErrMainNotFound is returned when the main file is not in the file set.
var ErrMainNotFound = errors.New("main file not in file set")

// Assemble returns the non-empty auxiliary files in order, each followed by
// Separator, then the main file's content. files is not modified.
func Assemble(files types.FileSet, main string) (string, error) {
	mainContent, ok := files.Lookup(main)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMainNotFound, main)
	}

	size := len(mainContent)
	for _, f := range files {
		if f.Name != main && f.Content != "" {
			size += len(f.Content) + len(Separator)
		}
	}

	var b strings.Builder
	b.Grow(size)
	for _, f := range files {
		if f.Name == main || f.Content == "" {
			continue
		}
		b.WriteString(f.Content)
		b.WriteString(Separator)
	}
	b.WriteString(mainContent)
	return b.String(), nil
}

// Document assembles a paper record.
func Document(rec types.PaperRecord) (types.AssembledDocument, error) {
	content, err := Assemble(rec.Files, rec.Main)
	if err != nil {
		return types.AssembledDocument{}, fmt.Errorf("assembling %s: %w", rec.ID, err)
	}
	return types.AssembledDocument{ID: rec.ID, Content: content}, nil
}

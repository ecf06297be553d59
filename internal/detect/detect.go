// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect picks the main file of a LaTeX source tree.
//
// A file is a candidate when it contains every structural marker as a
// literal substring. Markers inside comments or verbatim blocks count.
// Among several candidates the one with the most whitespace-separated
// words wins; the first candidate in file order wins a tie.
package detect

import (
	"strings"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

// Markers are the substrings a main file must contain.
var Markers = []string{
	`\title`,
	`\begin{abstract}`,
	`\end{abstract}`,
	`\begin{document}`,
	`\end{document}`,
}

// IsCandidate reports whether content contains every marker.
func IsCandidate(content string) bool {
	for _, m := range Markers {
		if !strings.Contains(content, m) {
			return false
		}
	}
	return true
}

// WordCount returns the number of whitespace-separated tokens in content.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// MainFile returns the name of the main file, or false when no file
// qualifies.
func MainFile(files types.FileSet) (string, bool) {
	best, bestWords := "", -1
	for _, f := range files {
		if !IsCandidate(f.Content) {
			continue
		}
		if n := WordCount(f.Content); n > bestWords {
			best, bestWords = f.Name, n
		}
	}
	return best, bestWords >= 0
}

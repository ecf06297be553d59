// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

const skeleton = "\\title{T}\n\\begin{abstract}A\\end{abstract}\n\\begin{document}D\\end{document}"

// paperWithWords returns a candidate with exactly n words.
func paperWithWords(n int) string {
	// skeleton has 3 whitespace-separated tokens.
	return skeleton + strings.Repeat(" w", n-3)
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"all markers", skeleton, true},
		{"missing title", strings.Replace(skeleton, `\title`, "", 1), false},
		{"missing abstract begin", strings.Replace(skeleton, `\begin{abstract}`, "", 1), false},
		{"missing abstract end", strings.Replace(skeleton, `\end{abstract}`, "", 1), false},
		{"missing document begin", strings.Replace(skeleton, `\begin{document}`, "", 1), false},
		{"missing document end", strings.Replace(skeleton, `\end{document}`, "", 1), false},
		{"markers inside a comment still count", "% " + strings.ReplaceAll(skeleton, "\n", " "), true},
		{"titlepage matches title prefix", strings.Replace(skeleton, `\title{T}`, `\titlepage`, 1), true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCandidate(tt.content))
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount(" \n\t "))
	assert.Equal(t, 3, WordCount("a  b\n\tc"))
	assert.Equal(t, 10, WordCount(paperWithWords(10)))
}

func TestMainFile(t *testing.T) {
	tests := []struct {
		name   string
		files  types.FileSet
		want   string
		wantOK bool
	}{
		{
			name:  "no files",
			files: nil,
		},
		{
			name: "no candidates",
			files: types.FileSet{
				{Name: "macros.tex", Content: `\newcommand`},
				{Name: "intro.tex", Content: `\section{Intro}`},
			},
		},
		{
			name: "single candidate",
			files: types.FileSet{
				{Name: "macros.tex", Content: `\newcommand`},
				{Name: "main.tex", Content: skeleton},
			},
			want:   "main.tex",
			wantOK: true,
		},
		{
			name: "larger candidate wins when first",
			files: types.FileSet{
				{Name: "big.tex", Content: paperWithWords(50)},
				{Name: "small.tex", Content: paperWithWords(10)},
			},
			want:   "big.tex",
			wantOK: true,
		},
		{
			name: "larger candidate wins when last",
			files: types.FileSet{
				{Name: "small.tex", Content: paperWithWords(10)},
				{Name: "big.tex", Content: paperWithWords(50)},
			},
			want:   "big.tex",
			wantOK: true,
		},
		{
			name: "first candidate wins a tie",
			files: types.FileSet{
				{Name: "b.tex", Content: paperWithWords(20)},
				{Name: "a.tex", Content: paperWithWords(20)},
			},
			want:   "b.tex",
			wantOK: true,
		},
		{
			name: "non-candidate with more words is ignored",
			files: types.FileSet{
				{Name: "notes.tex", Content: strings.Repeat("word ", 1000)},
				{Name: "main.tex", Content: skeleton},
			},
			want:   "main.tex",
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MainFile(tt.files)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMainFileFiveVersusFiveHundredWords(t *testing.T) {
	short := types.SourceFile{Name: "short.tex", Content: paperWithWords(5)}
	long := types.SourceFile{Name: "long.tex", Content: paperWithWords(500)}
	require.Equal(t, 5, WordCount(short.Content))
	require.Equal(t, 500, WordCount(long.Content))

	for _, files := range []types.FileSet{{short, long}, {long, short}} {
		got, ok := MainFile(files)
		require.True(t, ok)
		assert.Equal(t, "long.tex", got)
	}
}

func TestMainFileAlwaysReturnsAKey(t *testing.T) {
	sets := []types.FileSet{
		{{Name: "a", Content: skeleton}},
		{{Name: "a", Content: ""}, {Name: "b", Content: skeleton + " extra"}},
		{{Name: "a", Content: "\x00\xff"}, {Name: "b", Content: skeleton}},
	}
	for _, files := range sets {
		got, ok := MainFile(files)
		if !ok {
			continue
		}
		_, found := files.Lookup(got)
		assert.True(t, found, "MainFile returned %q, not in %v", got, files.Names())
	}
}

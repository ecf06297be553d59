// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MetadataRecord is one entry of the arXiv metadata snapshot. Only the
// fields the corpus build needs are decoded.
type MetadataRecord struct {
	// ID is the arXiv identifier (e.g. "2301.07041" or "hep-th/9901001").
	ID string `json:"id" yaml:"id"`

	// Categories is the space-separated category list (e.g. "cs.LG stat.ML").
	Categories string `json:"categories" yaml:"categories"`

	// UpdateDate is the last update date of the record.
	UpdateDate time.Time `json:"update_date" yaml:"update_date"`

	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Authors  string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
}

// SourceFile is one text file of a paper's source tree.
type SourceFile struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// FileSet is a paper's files in discovery order. Names are unique.
type FileSet []SourceFile

// Lookup returns the content of the named file.
func (fs FileSet) Lookup(name string) (string, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Content, true
		}
	}
	return "", false
}

// Names returns the file names in order.
func (fs FileSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// PaperRecord is a paper that passed intake and main-file detection.
// Main is always one of the names in Files.
type PaperRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Categories string    `json:"categories" yaml:"categories"`
	UpdateDate time.Time `json:"update_date" yaml:"update_date"`
	Title      string    `json:"title,omitempty" yaml:"title,omitempty"`
	Files      FileSet   `json:"files" yaml:"files"`
	Main       string    `json:"main" yaml:"main"`
}

// AssembledDocument is one training example: the auxiliary files of a
// paper followed by its main file.
type AssembledDocument struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
}

// RejectReason says why a paper was dropped from the corpus.
type RejectReason string

const (
	RejectNoSourceTree RejectReason = "NoSourceTree"
	RejectFileTooLarge RejectReason = "FileTooLarge"
	RejectTooManyFiles RejectReason = "TooManyFiles"
	RejectNoMainFile   RejectReason = "NoMainFile"
	RejectUnreadable   RejectReason = "Unreadable"
)

// RejectReasons lists every reason in report order.
var RejectReasons = []RejectReason{
	RejectNoSourceTree,
	RejectFileTooLarge,
	RejectTooManyFiles,
	RejectNoMainFile,
	RejectUnreadable,
}

// Rejection records a dropped paper.
type Rejection struct {
	ID     string       `json:"id" yaml:"id"`
	Reason RejectReason `json:"reason" yaml:"reason"`
	Detail string       `json:"detail,omitempty" yaml:"detail,omitempty"`
}

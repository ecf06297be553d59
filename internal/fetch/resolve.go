// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"regexp"
	"strings"
)

// eprintBase is the arXiv source endpoint. Declared as a var so tests can
// substitute an httptest server.
var eprintBase = "https://arxiv.org/e-print/"

// newStyleID matches "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var newStyleID = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// oldStyleID matches "hep-th/9901001", "math.CO/0406594v1".
var oldStyleID = regexp.MustCompile(`^(?:arXiv:)?([a-z][a-z\-]*(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)$`)

// NormalizeID validates an arXiv identifier and strips an optional
// "arXiv:" prefix.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if m := newStyleID.FindStringSubmatch(id); m != nil {
		return m[1], nil
	}
	if m := oldStyleID.FindStringSubmatch(id); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("unrecognized arXiv identifier %q", id)
}

// SourceURL returns the e-print download URL for a normalized id.
func SourceURL(id string) string {
	return eprintBase + id
}

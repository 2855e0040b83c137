// Package matcher decides which files qualify for a download plan
// based on glob patterns and a minimum-size threshold.
package matcher

import (
	"fmt"
	"path/filepath"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// Matcher filters file nodes by name pattern and size. Directories are
// never matched here; traversal visits them regardless.
type Matcher struct {
	includes []string
	excludes []string
	minSize  int64
}

// New creates a matcher. Patterns are shell-style globs (*, ?, and
// character classes), matched case-sensitively against node names.
// Malformed patterns are rejected up front so a bad pattern cannot
// silently match nothing.
func New(includes, excludes []string, minSize int64) (*Matcher, error) {
	for _, p := range append(append([]string{}, includes...), excludes...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	return &Matcher{
		includes: includes,
		excludes: excludes,
		minSize:  minSize,
	}, nil
}

// MatchAll matches every file regardless of name or size
func MatchAll() *Matcher {
	return &Matcher{}
}

// Matches reports whether a node qualifies for download.
// Only file nodes qualify. An empty include set passes every name;
// an exclude match always wins over an include match; minSize of 0
// disables the size threshold.
func (m *Matcher) Matches(node domain.Node) bool {
	if !node.IsFile() {
		return false
	}

	if len(m.includes) > 0 {
		included := false
		for _, p := range m.includes {
			if ok, _ := filepath.Match(p, node.Name); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, p := range m.excludes {
		if ok, _ := filepath.Match(p, node.Name); ok {
			return false
		}
	}

	if m.minSize > 0 && node.Size < m.minSize {
		return false
	}

	return true
}

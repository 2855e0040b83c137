package matcher

import (
	"testing"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

func file(name string, size int64) domain.Node {
	return domain.Node{ID: "f-" + name, Name: name, Kind: domain.KindFile, Size: size}
}

func dir(name string) domain.Node {
	return domain.Node{ID: "d-" + name, Name: name, Kind: domain.KindDirectory}
}

func TestMatcher_Matches(t *testing.T) {
	tests := []struct {
		name     string
		includes []string
		excludes []string
		minSize  int64
		node     domain.Node
		expected bool
	}{
		{
			name:     "no filters pass every file",
			node:     file("anything.bin", 10),
			expected: true,
		},
		{
			name:     "directories never match",
			node:     dir("season1"),
			expected: false,
		},
		{
			name:     "include match",
			includes: []string{"*.mp4", "*.mkv"},
			node:     file("movie.mkv", 100),
			expected: true,
		},
		{
			name:     "include miss",
			includes: []string{"*.mp4", "*.mkv"},
			node:     file("notes.txt", 100),
			expected: false,
		},
		{
			name:     "exclude wins over include",
			includes: []string{"*.mp4"},
			excludes: []string{"*sample*"},
			node:     file("movie.sample.mp4", 100),
			expected: false,
		},
		{
			name:     "exclude without includes",
			excludes: []string{"*.nfo"},
			node:     file("movie.nfo", 100),
			expected: false,
		},
		{
			name:     "below size threshold",
			includes: []string{"*.mp4"},
			minSize:  1 << 20,
			node:     file("clip.mp4", 1024),
			expected: false,
		},
		{
			name:     "at size threshold",
			minSize:  1 << 20,
			node:     file("movie.mp4", 1<<20),
			expected: true,
		},
		{
			name:     "zero threshold disables size filter",
			node:     file("empty.mp4", 0),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.includes, tt.excludes, tt.minSize)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			result := m.Matches(tt.node)
			if result != tt.expected {
				t.Errorf("Matches(%s) = %v, want %v", tt.node.Name, result, tt.expected)
			}
		})
	}
}

func TestMatcher_InvalidPattern(t *testing.T) {
	if _, err := New([]string{"[unclosed"}, nil, 0); err == nil {
		t.Error("New() should reject a malformed include pattern")
	}
	if _, err := New(nil, []string{"[unclosed"}, 0); err == nil {
		t.Error("New() should reject a malformed exclude pattern")
	}
}

func TestMatchAll(t *testing.T) {
	m := MatchAll()

	if !m.Matches(file("whatever", 0)) {
		t.Error("MatchAll should match any file")
	}
	if m.Matches(dir("d")) {
		t.Error("MatchAll should still reject directories")
	}
}

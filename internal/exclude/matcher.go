// Package exclude filters paths out of analysis: user-configured
// exclude patterns and auto-detected dependency directories.
package exclude

import (
	"path"
	"path/filepath"
	"strings"
)

// Matcher holds compiled exclude patterns. A pattern without a slash
// matches any single path segment ("__pycache__", "*.pyc"); a pattern
// with slashes matches the whole relative path, where "**" spans any
// number of segments ("gen/**", "**/testdata/*").
type Matcher struct {
	patterns []string
}

// NewMatcher compiles a pattern list. Empty patterns are dropped and
// trailing slashes trimmed, so "vendor/" behaves like "vendor".
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		m.patterns = append(m.patterns, filepath.ToSlash(p))
	}
	return m
}

// Match reports whether any pattern excludes the given path. Paths are
// compared in forward-slash form.
func (m *Matcher) Match(p string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
	for _, pattern := range m.patterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// Filter returns the paths not excluded by the matcher, preserving
// order.
func (m *Matcher) Filter(paths []string) []string {
	if m == nil || len(m.patterns) == 0 {
		return paths
	}
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !m.Match(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func matchPattern(pattern, p string) bool {
	if !strings.Contains(pattern, "/") {
		for _, seg := range strings.Split(p, "/") {
			if ok, err := path.Match(pattern, seg); err == nil && ok {
				return true
			}
		}
		return false
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(p, "/"))
}

// matchSegments matches a slash-split pattern against path segments,
// with "**" consuming zero or more segments.
func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pattern[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if ok, err := path.Match(pattern[0], segs[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segs[1:])
}

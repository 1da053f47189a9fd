// Package ahocorasick provides multi-pattern string matching using an
// Aho-Corasick automaton. It wraps the petar-dambovaliev/aho-corasick
// library for O(n + m + z) matching.
package ahocorasick

import (
	"strings"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// NameMatcher implements ports.NameMatcher for the bulk auto-mapper:
// Build() compiles the unresolved query strings into an automaton, Match()
// reports which queries occur inside a concept name. Matching is
// case-insensitive; patterns and haystacks are lowercased here so callers
// pass text as-is.
type NameMatcher struct {
	automaton aho.AhoCorasick
	patterns  []string
	built     bool
}

// NewNameMatcher creates an empty matcher. Build must run before Match.
func NewNameMatcher() *NameMatcher {
	return &NameMatcher{}
}

// Build compiles the automaton from the given patterns.
func (m *NameMatcher) Build(patterns []string) {
	m.patterns = make([]string, len(patterns))
	for i, p := range patterns {
		m.patterns[i] = strings.ToLower(p)
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	m.automaton = builder.Build(m.patterns)
	m.built = true
}

// Match returns the indices of every pattern contained in name,
// deduplicated, in first-occurrence order. Overlapping matches are
// iterated so no pattern nested inside another is missed.
func (m *NameMatcher) Match(name string) []int {
	if !m.built || len(m.patterns) == 0 {
		return nil
	}

	iter := m.automaton.IterOverlapping(strings.ToLower(name))
	seen := make(map[int]bool)
	var result []int
	for next := iter.Next(); next != nil; next = iter.Next() {
		idx := next.Pattern()
		if !seen[idx] {
			seen[idx] = true
			result = append(result, idx)
		}
	}
	return result
}

package ports

// NameMatcher finds which of a set of query strings occur inside a concept
// name, using multi-pattern matching (Aho-Corasick). One pass over a name
// reports every matching query simultaneously, so the bulk auto-mapper can
// scan the whole concept table once instead of once per query.
type NameMatcher interface {
	// Build compiles the automaton from the given patterns. Matching is
	// case-insensitive; implementations normalize internally.
	Build(patterns []string)

	// Match returns the indices (into the Build slice) of every pattern
	// contained in name, deduplicated. Nil when nothing matches.
	Match(name string) []int
}

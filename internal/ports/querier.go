package ports

// Querier is the read interface over a loaded terminology. The in-process
// query engine and the daemon socket client both implement it, so callers
// (the mapping workflow, the CLI) do not care whether a daemon is running.
type Querier interface {
	// FindConcepts searches name rows case-insensitively in three tiers:
	// exact match, exact match with a " (disorder)"/" (finding)" suffix,
	// then substring containment. Tiers never mix — the first tier with
	// hits wins. An empty result is not an error.
	FindConcepts(text string) ([]Concept, error)

	// FindUniqueCUI reports the single concept identifier the text resolves
	// to. ok is false when the search yields zero hits or hits spanning
	// more than one distinct CUI.
	FindUniqueCUI(text string) (cui int64, ok bool, err error)

	// PrimaryConcept returns the unique primary name row for a CUI.
	// Missing or duplicated primary rows are data-integrity errors.
	PrimaryConcept(cui int64) (Concept, error)

	// ConceptRows returns every name row carried by a CUI, across all
	// loaded releases.
	ConceptRows(cui int64) ([]Concept, error)

	// Parents returns the concept rows of direct is-a parents, primary
	// rows only when primaryOnly is set.
	Parents(cui int64, primaryOnly bool) ([]Concept, error)

	// Children returns the concept rows of direct is-a children, primary
	// rows only when primaryOnly is set.
	Children(cui int64, primaryOnly bool) ([]Concept, error)

	// Ancestors walks is-a edges upward from cui and returns every
	// reachable concept with its minimum hop count, ordered by
	// (level, cui). The starting concept itself is not included.
	Ancestors(cui int64) ([]Ancestor, error)
}

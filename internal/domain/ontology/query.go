package ontology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carrick/snomap/internal/ports"
)

// Engine answers read-only queries over a Store. It implements
// ports.Querier and is safe for concurrent use.
type Engine struct {
	store *Store
}

// NewEngine creates a query engine over the given store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Store exposes the underlying store for callers that need direct table
// access (the bulk auto-mapper scans all name rows in one pass).
func (e *Engine) Store() *Store {
	return e.store
}

// Narrow applies the three-tier match policy to a candidate slice:
// exact name match, exact match with a " (disorder)" or " (finding)"
// qualifier, then substring containment. The first tier with hits wins;
// tiers never mix. Matching is case-insensitive and candidate order is
// preserved within a tier.
//
// Exposed at package level so the bulk auto-mapper can apply the identical
// policy to a prefiltered candidate set.
func Narrow(text string, candidates []ports.Concept) []ports.Concept {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return nil
	}

	var exact, qualified, partial []ports.Concept
	for _, c := range candidates {
		name := strings.ToLower(c.Name)
		switch {
		case name == query:
			exact = append(exact, c)
		case name == query+" (disorder)" || name == query+" (finding)":
			qualified = append(qualified, c)
		case strings.Contains(name, query):
			partial = append(partial, c)
		}
	}

	if len(exact) > 0 {
		return exact
	}
	if len(qualified) > 0 {
		return qualified
	}
	return partial
}

// FindConcepts searches all name rows with the three-tier policy.
func (e *Engine) FindConcepts(text string) ([]ports.Concept, error) {
	return Narrow(text, e.store.concepts), nil
}

// FindUniqueCUI resolves text to a CUI only when the search hits exactly
// one distinct CUI. Absent and ambiguous are indistinguishable here; callers
// that care fall back to FindConcepts.
func (e *Engine) FindUniqueCUI(text string) (int64, bool, error) {
	rows, err := e.FindConcepts(text)
	if err != nil {
		return 0, false, err
	}
	return uniqueCUI(rows)
}

// uniqueCUI reports the single distinct CUI in rows, if there is one.
func uniqueCUI(rows []ports.Concept) (int64, bool, error) {
	if len(rows) == 0 {
		return 0, false, nil
	}
	cui := rows[0].CUI
	for _, r := range rows[1:] {
		if r.CUI != cui {
			return 0, false, nil
		}
	}
	return cui, true, nil
}

// PrimaryConcept returns the unique primary name row for a CUI.
func (e *Engine) PrimaryConcept(cui int64) (ports.Concept, error) {
	return e.store.PrimaryConcept(cui)
}

// ConceptRows returns every name row carried by a CUI.
func (e *Engine) ConceptRows(cui int64) ([]ports.Concept, error) {
	return e.store.ConceptsFor(cui), nil
}

// Parents returns the name rows of direct is-a parents.
func (e *Engine) Parents(cui int64, primaryOnly bool) ([]ports.Concept, error) {
	return e.rowsFor(e.store.ParentCUIs(cui), primaryOnly), nil
}

// Children returns the name rows of direct is-a children.
func (e *Engine) Children(cui int64, primaryOnly bool) ([]ports.Concept, error) {
	return e.rowsFor(e.store.ChildCUIs(cui), primaryOnly), nil
}

func (e *Engine) rowsFor(cuis []int64, primaryOnly bool) []ports.Concept {
	var rows []ports.Concept
	for _, cui := range cuis {
		for _, c := range e.store.ConceptsFor(cui) {
			if primaryOnly && !c.IsPrimary() {
				continue
			}
			rows = append(rows, c)
		}
	}
	return rows
}

// Ancestors walks is-a edges upward from cui, breadth-first with a visited
// set, so traversal terminates on cyclic data and each ancestor is reported
// once at its minimum hop count. The starting concept is not its own
// ancestor. Results carry primary rows only and are ordered by
// (level, cui) ascending.
//
// An ancestor CUI referenced by an edge but absent from the concept table
// is traversed through silently; only CUIs with a concept row are reported.
func (e *Engine) Ancestors(cui int64) ([]ports.Ancestor, error) {
	type node struct {
		cui   int64
		level int
	}

	visited := map[int64]bool{cui: true}
	var queue []node
	for _, p := range e.store.ParentCUIs(cui) {
		visited[p] = true
		queue = append(queue, node{p, 1})
	}

	var out []ports.Ancestor
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if e.store.HasConcept(n.cui) {
			primary, err := e.store.PrimaryConcept(n.cui)
			if err != nil {
				return nil, fmt.Errorf("ancestors of %d: %w", cui, err)
			}
			out = append(out, ports.Ancestor{Concept: primary, Level: n.level})
		}

		for _, p := range e.store.ParentCUIs(n.cui) {
			if !visited[p] {
				visited[p] = true
				queue = append(queue, node{p, n.level + 1})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Concept.CUI < out[j].Concept.CUI
	})
	return out, nil
}

// resolveName is the shared "unique name -> cui" step behind the *ByName
// helpers. A name that is absent or spans several CUIs fails with
// ErrConceptNotFound.
func (e *Engine) resolveName(name string) (int64, error) {
	cui, ok, err := e.FindUniqueCUI(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrConceptNotFound, name)
	}
	return cui, nil
}

// ParentsByName resolves a unique name and returns its direct parents.
func (e *Engine) ParentsByName(name string, primaryOnly bool) ([]ports.Concept, error) {
	cui, err := e.resolveName(name)
	if err != nil {
		return nil, err
	}
	return e.Parents(cui, primaryOnly)
}

// ChildrenByName resolves a unique name and returns its direct children.
func (e *Engine) ChildrenByName(name string, primaryOnly bool) ([]ports.Concept, error) {
	cui, err := e.resolveName(name)
	if err != nil {
		return nil, err
	}
	return e.Children(cui, primaryOnly)
}

// AncestorsByName resolves a unique name and returns its full ancestry.
func (e *Engine) AncestorsByName(name string) ([]ports.Ancestor, error) {
	cui, err := e.resolveName(name)
	if err != nil {
		return nil, err
	}
	return e.Ancestors(cui)
}

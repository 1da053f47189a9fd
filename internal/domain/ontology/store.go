package ontology

import (
	"fmt"
	"sort"

	"github.com/carrick/snomap/internal/ports"
)

// Store holds the concatenated concept and edge tables of one or more
// releases, indexed for lookup by CUI and by edge endpoint. It is built once
// and never mutated, so it is safe for concurrent reads without locking.
type Store struct {
	concepts []ports.Concept
	edges    []ports.Edge
	releases []string

	byCUI    map[int64][]int // cui -> indices into concepts
	parents  map[int64][]int64
	children map[int64][]int64
}

// NewStore builds a store from per-release tables in load order. Tables are
// concatenated; no cross-release deduplication happens beyond what CUI
// equality already provides. Adjacency lists are deduplicated and sorted by
// CUI for deterministic traversal.
func NewStore(tables ...*ports.ReleaseTables) *Store {
	s := &Store{
		byCUI:    make(map[int64][]int),
		parents:  make(map[int64][]int64),
		children: make(map[int64][]int64),
	}

	seenReleases := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Concepts {
			s.byCUI[c.CUI] = append(s.byCUI[c.CUI], len(s.concepts))
			s.concepts = append(s.concepts, c)
			if !seenReleases[c.Release] {
				seenReleases[c.Release] = true
				s.releases = append(s.releases, c.Release)
			}
		}
		s.edges = append(s.edges, t.Edges...)
	}

	parentSet := make(map[int64]map[int64]bool)
	childSet := make(map[int64]map[int64]bool)
	for _, e := range s.edges {
		if parentSet[e.SourceCUI] == nil {
			parentSet[e.SourceCUI] = make(map[int64]bool)
		}
		parentSet[e.SourceCUI][e.DestinationCUI] = true
		if childSet[e.DestinationCUI] == nil {
			childSet[e.DestinationCUI] = make(map[int64]bool)
		}
		childSet[e.DestinationCUI][e.SourceCUI] = true
	}
	s.parents = sortedAdjacency(parentSet)
	s.children = sortedAdjacency(childSet)

	return s
}

func sortedAdjacency(set map[int64]map[int64]bool) map[int64][]int64 {
	adj := make(map[int64][]int64, len(set))
	for cui, neighbors := range set {
		list := make([]int64, 0, len(neighbors))
		for n := range neighbors {
			list = append(list, n)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		adj[cui] = list
	}
	return adj
}

// ConceptsFor returns all name rows for a CUI (Primary and Alternates, any
// release), in load order. Empty when the CUI is unknown.
func (s *Store) ConceptsFor(cui int64) []ports.Concept {
	indices := s.byCUI[cui]
	rows := make([]ports.Concept, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, s.concepts[i])
	}
	return rows
}

// PrimaryConcept returns the single primary name row for a CUI. Zero or
// multiple primary rows indicate corrupt source data and fail hard.
func (s *Store) PrimaryConcept(cui int64) (ports.Concept, error) {
	var primary ports.Concept
	count := 0
	for _, i := range s.byCUI[cui] {
		if s.concepts[i].IsPrimary() {
			primary = s.concepts[i]
			count++
		}
	}
	switch count {
	case 0:
		return ports.Concept{}, fmt.Errorf("%w: cui %d", ErrNoPrimaryConcept, cui)
	case 1:
		return primary, nil
	default:
		return ports.Concept{}, fmt.Errorf("%w: cui %d has %d primary rows", ErrAmbiguousPrimaryConcept, cui, count)
	}
}

// HasConcept reports whether any name row exists for the CUI.
func (s *Store) HasConcept(cui int64) bool {
	return len(s.byCUI[cui]) > 0
}

// ParentCUIs returns the direct is-a parents of a CUI, sorted ascending.
func (s *Store) ParentCUIs(cui int64) []int64 {
	return s.parents[cui]
}

// ChildCUIs returns the direct is-a children of a CUI, sorted ascending.
func (s *Store) ChildCUIs(cui int64) []int64 {
	return s.children[cui]
}

// Concepts returns all name rows in load order. The slice is shared, not
// copied; callers must not mutate it.
func (s *Store) Concepts() []ports.Concept {
	return s.concepts
}

// Releases returns the release names contributing rows, in load order.
func (s *Store) Releases() []string {
	return s.releases
}

// ConceptCount returns the total number of name rows.
func (s *Store) ConceptCount() int { return len(s.concepts) }

// CUICount returns the number of distinct CUIs.
func (s *Store) CUICount() int { return len(s.byCUI) }

// EdgeCount returns the total number of is-a edges, duplicates included.
func (s *Store) EdgeCount() int { return len(s.edges) }

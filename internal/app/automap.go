package app

import (
	"github.com/carrick/snomap/internal/domain/mapping"
	"github.com/carrick/snomap/internal/domain/ontology"
	"github.com/carrick/snomap/internal/ports"
)

// AutoMapReport describes the outcome of an automatic mapping pass.
type AutoMapReport struct {
	Resolved  int
	Remaining int
	// Matches records string → resolved primary name for display.
	Matches map[string]string
}

// AutoMap resolves every unresolved string that hits exactly one distinct
// CUI. Works against any Querier, so it runs identically over a daemon
// connection or an in-process engine.
func AutoMap(state *mapping.State, q ports.Querier) (AutoMapReport, error) {
	report := AutoMapReport{Matches: make(map[string]string)}

	// Resolve mutates the unresolved slice, so walk a copy.
	pending := make([]string, len(state.Unresolved))
	copy(pending, state.Unresolved)

	for _, str := range pending {
		cui, ok, err := q.FindUniqueCUI(str)
		if err != nil {
			return report, err
		}
		if !ok {
			continue
		}
		primary, err := q.PrimaryConcept(cui)
		if err != nil {
			return report, err
		}
		if err := state.Resolve(str, cui); err != nil {
			return report, err
		}
		report.Resolved++
		report.Matches[str] = primary.Name
	}
	report.Remaining = len(state.Unresolved)
	return report, nil
}

// AutoMapBulk is the large-input variant: instead of scanning every name row
// once per string, it builds a multi-pattern automaton over the unresolved
// strings and sweeps the concept table a single time to collect candidates,
// then applies the usual match policy per string.
func AutoMapBulk(state *mapping.State, engine *ontology.Engine, matcher ports.NameMatcher) (AutoMapReport, error) {
	report := AutoMapReport{Matches: make(map[string]string)}

	pending := make([]string, len(state.Unresolved))
	copy(pending, state.Unresolved)
	if len(pending) == 0 {
		return report, nil
	}

	matcher.Build(pending)

	// Every tier of the match policy implies case-insensitive containment,
	// so the automaton sweep cannot miss a candidate.
	candidates := make([][]ports.Concept, len(pending))
	for _, c := range engine.Store().Concepts() {
		for _, idx := range matcher.Match(c.Name) {
			candidates[idx] = append(candidates[idx], c)
		}
	}

	for i, str := range pending {
		rows := ontology.Narrow(str, candidates[i])
		if len(rows) == 0 {
			continue
		}
		cui := rows[0].CUI
		unique := true
		for _, r := range rows[1:] {
			if r.CUI != cui {
				unique = false
				break
			}
		}
		if !unique {
			continue
		}
		primary, err := engine.PrimaryConcept(cui)
		if err != nil {
			return report, err
		}
		if err := state.Resolve(str, cui); err != nil {
			return report, err
		}
		report.Resolved++
		report.Matches[str] = primary.Name
	}
	report.Remaining = len(state.Unresolved)
	return report, nil
}

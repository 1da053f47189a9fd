package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carrick/snomap/internal/domain/mapping"
	"github.com/carrick/snomap/internal/ports"
)

// OpenSession loads mapping state for an input file. from selects the
// starting point: 0 reads the input list fresh, -1 resumes the latest
// snapshot, any other value loads that numbered snapshot.
func OpenSession(inputPath string, from int) (*mapping.State, *mapping.SnapshotStore, error) {
	store := mapping.NewSnapshotStore(inputPath)

	switch {
	case from == 0:
		lines, err := mapping.ReadInput(inputPath)
		if err != nil {
			return nil, nil, err
		}
		return mapping.NewState(lines), store, nil

	case from < 0:
		state, err := store.LoadLatest()
		if err != nil {
			return nil, nil, err
		}
		return state, store, nil

	default:
		state, err := store.Load(from)
		if err != nil {
			return nil, nil, err
		}
		return state, store, nil
	}
}

// ManualMapReport describes the outcome of an interactive mapping pass.
type ManualMapReport struct {
	Resolved  int
	Skipped   int
	Remaining int
}

// ManualMap walks the unresolved strings one by one, offering the search
// candidates for each and letting the operator refine the query when the
// string itself finds nothing usable. Declining both prompts skips the
// string.
func ManualMap(state *mapping.State, q ports.Querier, p ports.Presenter) (ManualMapReport, error) {
	var report ManualMapReport

	pending := make([]string, len(state.Unresolved))
	copy(pending, state.Unresolved)

	for _, str := range pending {
		cui, ok, err := manualResolve(str, q, p)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Skipped++
			continue
		}
		if err := state.Resolve(str, cui); err != nil {
			return report, err
		}
		report.Resolved++
	}
	report.Remaining = len(state.Unresolved)
	return report, nil
}

func manualResolve(str string, q ports.Querier, p ports.Presenter) (int64, bool, error) {
	query := str
	for {
		rows, err := q.FindConcepts(query)
		if err != nil {
			return 0, false, err
		}

		if len(rows) > 0 {
			options := make([]ports.Option, len(rows))
			for i, r := range rows {
				options[i] = ports.Option{CUI: r.CUI, Label: r.Name, Level: -1}
			}
			idx, ok := p.Select(fmt.Sprintf("Matches for %q", str), options)
			if ok {
				return options[idx].CUI, true, nil
			}
		}

		// No candidates, or the operator declined them all: accept a cui
		// directly, or a refined search query.
		typed, ok := p.Input(fmt.Sprintf("Enter a cui or new search for %q (blank to skip)", str))
		if !ok {
			return 0, false, nil
		}
		if cui, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64); err == nil {
			return cui, true, nil
		}
		query = typed
	}
}

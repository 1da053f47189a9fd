package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carrick/snomap/internal/ports"
)

// Workflow drives the interactive condition -> grouping assignment. It
// depends only on the Querier and Presenter ports, so it runs identically
// against an in-process engine, a daemon client, or a scripted test double.
type Workflow struct {
	State     *State
	Querier   ports.Querier
	Presenter ports.Presenter
}

// RunSummary reports what a grouping session changed.
type RunSummary struct {
	NewGroupings   int
	NewAssignments int
	Aborted        bool
}

// Run walks every ungrouped condition through the selection procedure.
// A declined condition leaves the state untouched and offers to abort the
// whole session; an assigned grouping is recorded immediately, so aborting
// later keeps earlier assignments.
func (w *Workflow) Run() (RunSummary, error) {
	var summary RunSummary
	groupingsBefore := len(w.State.KnownGroupingCUIs())

	for _, cui := range w.State.UngroupedConditions() {
		grouping, ok, err := w.chooseGrouping(cui)
		if err != nil {
			return summary, err
		}
		if !ok {
			if w.Presenter.Confirm("No grouping assigned. Abort grouping session?") {
				summary.Aborted = true
				break
			}
			continue
		}
		w.State.AssignGrouping(cui, grouping)
		summary.NewAssignments++
	}

	summary.NewGroupings = len(w.State.KnownGroupingCUIs()) - groupingsBefore
	return summary, nil
}

// chooseGrouping runs the five-step selection procedure for one condition.
// ok is false when the operator declines every step. No state is written
// here; the caller records the result.
func (w *Workflow) chooseGrouping(cui int64) (int64, bool, error) {
	// Step 1: a condition that is already a grouping groups itself,
	// no interaction needed.
	if w.State.IsKnownGrouping(cui) {
		return cui, true, nil
	}

	condition, err := w.Querier.PrimaryConcept(cui)
	if err != nil {
		return 0, false, err
	}
	ancestors, err := w.Querier.Ancestors(cui)
	if err != nil {
		return 0, false, err
	}

	// Step 2: ancestors already in use as groupings. An ancestor being a
	// known grouping is a suggestion, not a decision — the operator may
	// still want this condition grouped on its own.
	var knownAncestors []ports.Option
	for _, a := range ancestors {
		if w.State.IsKnownGrouping(a.Concept.CUI) {
			knownAncestors = append(knownAncestors, ancestorOption(a))
		}
	}
	if len(knownAncestors) > 0 {
		prompt := fmt.Sprintf("Select grouping for %q. Ancestors already used as groupings:", condition.Name)
		if idx, ok := w.Presenter.Select(prompt, knownAncestors); ok {
			return knownAncestors[idx].CUI, true, nil
		}
	}

	// Step 3: the full ancestor list, with the condition itself at
	// level 0.
	options := make([]ports.Option, 0, len(ancestors)+1)
	options = append(options, ports.Option{CUI: cui, Label: condition.Name, Level: 0})
	for _, a := range ancestors {
		options = append(options, ancestorOption(a))
	}
	prompt := fmt.Sprintf("Select grouping for %q. All ancestors (0 is the condition itself):", condition.Name)
	if idx, ok := w.Presenter.Select(prompt, options); ok {
		return options[idx].CUI, true, nil
	}

	// Step 4: every existing grouping, ancestor or not. Groupings picked
	// here deliberately break out of the hierarchy.
	groupings := w.State.KnownGroupingCUIs()
	if len(groupings) > 0 {
		groupingOptions := make([]ports.Option, 0, len(groupings))
		for _, g := range groupings {
			primary, err := w.Querier.PrimaryConcept(g)
			if err != nil {
				return 0, false, err
			}
			groupingOptions = append(groupingOptions, ports.Option{CUI: g, Label: primary.Name, Level: -1})
		}
		prompt = fmt.Sprintf("Select grouping for %q. All existing groupings:", condition.Name)
		if idx, ok := w.Presenter.Select(prompt, groupingOptions); ok {
			return groupingOptions[idx].CUI, true, nil
		}
	}

	// Step 5: manual entry. The workflow never invents a grouping without
	// operator input; a blank or unparseable answer is a decline.
	prompt = fmt.Sprintf("Enter a grouping CUI for %q (blank to skip):", condition.Name)
	text, ok := w.Presenter.Input(prompt)
	if !ok {
		return 0, false, nil
	}
	manual, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return manual, true, nil
}

func ancestorOption(a ports.Ancestor) ports.Option {
	return ports.Option{CUI: a.Concept.CUI, Label: a.Concept.Name, Level: a.Level}
}

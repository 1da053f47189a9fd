// Package mapping tracks the three-tier relationship between freetext
// condition strings, resolved terminology codes ("conditions"), and coarser
// terminology codes ("groupings"), along with its versioned persistence and
// the interactive grouping workflow.
package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/carrick/snomap/internal/ports"
)

var (
	// ErrUnknownString reports an operation on a string that is not in the
	// unresolved set. This is a caller error, not a data condition.
	ErrUnknownString = errors.New("string not in unresolved set")

	// ErrNoSnapshot reports a load-latest request with zero snapshots on
	// disk. Callers that treat it as "start fresh" check for it explicitly.
	ErrNoSnapshot = errors.New("no mapping snapshot found")

	// ErrNotConfirmed reports a destructive operation invoked without the
	// caller's explicit confirmation.
	ErrNotConfirmed = errors.New("operation not confirmed")
)

// State is the in-memory mapping for one input list. The three fields
// partition and link the input: every input string is either in Unresolved
// or a key of StringToCondition, and ConditionToGrouping keys are a subset
// of StringToCondition values.
type State struct {
	Unresolved          []string
	StringToCondition   map[string]int64
	ConditionToGrouping map[int64]int64
}

// NewState starts a fresh mapping over the given freetext strings. Each
// string is whitespace-trimmed so later lookups all see the same form; blank
// lines and duplicates are dropped; order is preserved.
func NewState(input []string) *State {
	seen := make(map[string]bool, len(input))
	var unresolved []string
	for _, s := range input {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		unresolved = append(unresolved, s)
	}
	return &State{
		Unresolved:          unresolved,
		StringToCondition:   make(map[string]int64),
		ConditionToGrouping: make(map[int64]int64),
	}
}

// ReadInput loads the freetext condition list from a file, one string per
// line.
func ReadInput(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read input list: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input list: %w", err)
	}
	return lines, nil
}

// Resolve moves str from the unresolved set into the string -> condition
// mapping. The cui is recorded as given; validating it against the store is
// the caller's job. Fails with ErrUnknownString when str is not unresolved.
func (s *State) Resolve(str string, cui int64) error {
	idx := -1
	for i, u := range s.Unresolved {
		if u == str {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownString, str)
	}
	s.Unresolved = append(s.Unresolved[:idx], s.Unresolved[idx+1:]...)
	s.StringToCondition[str] = cui
	return nil
}

// AssignGrouping records (or overwrites) the grouping for a condition.
// The grouping cui need not be a resolved condition itself; a condition may
// be grouped under any cui, including itself.
func (s *State) AssignGrouping(cui, grouping int64) {
	s.ConditionToGrouping[cui] = grouping
}

// IsKnownGrouping reports whether cui is already used as a grouping.
func (s *State) IsKnownGrouping(cui int64) bool {
	for _, g := range s.ConditionToGrouping {
		if g == cui {
			return true
		}
	}
	return false
}

// KnownConditionCUIs returns the distinct resolved condition cuis, sorted.
func (s *State) KnownConditionCUIs() []int64 {
	set := make(map[int64]bool, len(s.StringToCondition))
	for _, cui := range s.StringToCondition {
		set[cui] = true
	}
	return sortedKeys(set)
}

// KnownGroupingCUIs returns the distinct grouping cuis in use, sorted.
func (s *State) KnownGroupingCUIs() []int64 {
	set := make(map[int64]bool, len(s.ConditionToGrouping))
	for _, g := range s.ConditionToGrouping {
		set[g] = true
	}
	return sortedKeys(set)
}

// UngroupedConditions returns the resolved condition cuis that have no
// grouping yet, sorted.
func (s *State) UngroupedConditions() []int64 {
	var out []int64
	for _, cui := range s.KnownConditionCUIs() {
		if _, ok := s.ConditionToGrouping[cui]; !ok {
			out = append(out, cui)
		}
	}
	return out
}

// ConditionToStrings inverts the string -> condition mapping.
func (s *State) ConditionToStrings() map[int64][]string {
	out := make(map[int64][]string)
	for str, cui := range s.StringToCondition {
		out[cui] = append(out[cui], str)
	}
	for _, strs := range out {
		sort.Strings(strs)
	}
	return out
}

// GroupingToConditions inverts the condition -> grouping mapping.
func (s *State) GroupingToConditions() map[int64][]int64 {
	out := make(map[int64][]int64)
	for cui, g := range s.ConditionToGrouping {
		out[g] = append(out[g], cui)
	}
	for _, cuis := range out {
		sort.Slice(cuis, func(i, j int) bool { return cuis[i] < cuis[j] })
	}
	return out
}

// GroupingToStrings maps each grouping to every freetext string it covers,
// via the conditions grouped under it.
func (s *State) GroupingToStrings() map[int64][]string {
	conditionStrings := s.ConditionToStrings()
	out := make(map[int64][]string)
	for grouping, cuis := range s.GroupingToConditions() {
		for _, cui := range cuis {
			out[grouping] = append(out[grouping], conditionStrings[cui]...)
		}
		sort.Strings(out[grouping])
	}
	return out
}

// StringToGrouping maps each resolved string straight to its grouping,
// or -1 when its condition is not grouped yet.
func (s *State) StringToGrouping() map[string]int64 {
	out := make(map[string]int64, len(s.StringToCondition))
	for str, cui := range s.StringToCondition {
		if g, ok := s.ConditionToGrouping[cui]; ok {
			out[str] = g
		} else {
			out[str] = -1
		}
	}
	return out
}

func sortedKeys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Row is one line of the full mapping table: a freetext string with its
// resolved condition and grouping. Unresolved tiers carry cui -1 and the
// name "Unknown".
type Row struct {
	String        string
	ConditionCUI  int64
	ConditionName string
	GroupingCUI   int64
	GroupingName  string
}

// Rows renders the whole mapping as a table, resolving primary names
// through q. Resolved strings come first sorted by string, then unresolved
// strings in input order.
func (s *State) Rows(q ports.Querier) ([]Row, error) {
	strs := make([]string, 0, len(s.StringToCondition))
	for str := range s.StringToCondition {
		strs = append(strs, str)
	}
	sort.Strings(strs)

	rows := make([]Row, 0, len(strs)+len(s.Unresolved))
	for _, str := range strs {
		cui := s.StringToCondition[str]
		row := Row{String: str, ConditionCUI: cui, GroupingCUI: -1, GroupingName: "Unknown"}

		primary, err := q.PrimaryConcept(cui)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", cui, err)
		}
		row.ConditionName = primary.Name

		if g, ok := s.ConditionToGrouping[cui]; ok {
			row.GroupingCUI = g
			groupingPrimary, err := q.PrimaryConcept(g)
			if err != nil {
				return nil, fmt.Errorf("grouping %d: %w", g, err)
			}
			row.GroupingName = groupingPrimary.Name
		}
		rows = append(rows, row)
	}

	for _, str := range s.Unresolved {
		rows = append(rows, Row{
			String:        str,
			ConditionCUI:  -1,
			ConditionName: "Unknown",
			GroupingCUI:   -1,
			GroupingName:  "Unknown",
		})
	}
	return rows, nil
}

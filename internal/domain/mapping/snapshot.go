package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SnapshotStore persists numbered, immutable copies of a State next to the
// input file: <input stem>_mapped_<N>.json. Numbers only grow; save never
// overwrites an existing file.
type SnapshotStore struct {
	stem string
}

// NewSnapshotStore derives the snapshot location from the input file path
// by stripping its extension.
func NewSnapshotStore(inputPath string) *SnapshotStore {
	return &SnapshotStore{stem: strings.TrimSuffix(inputPath, filepath.Ext(inputPath))}
}

// Path returns the snapshot file path for number n.
func (ss *SnapshotStore) Path(n int) string {
	return fmt.Sprintf("%s_mapped_%d.json", ss.stem, n)
}

// Latest returns the highest existing snapshot number, 0 when none exist.
func (ss *SnapshotStore) Latest() (int, error) {
	files, err := ss.list()
	if err != nil {
		return 0, err
	}
	latest := 0
	for _, f := range files {
		if n, ok := ss.number(f); ok && n > latest {
			latest = n
		}
	}
	return latest, nil
}

// Save writes state as snapshot latest+1 and returns the path written.
// O_EXCL guarantees no existing snapshot is ever overwritten; on a
// collision the number is bumped and the write retried.
func (ss *SnapshotStore) Save(state *State) (string, error) {
	doc := snapshotDoc{
		UnknownStrings:      state.Unresolved,
		StringToCondition:   state.StringToCondition,
		ConditionToGrouping: make(map[string]int64, len(state.ConditionToGrouping)),
	}
	if doc.UnknownStrings == nil {
		doc.UnknownStrings = []string{}
	}
	if doc.StringToCondition == nil {
		doc.StringToCondition = map[string]int64{}
	}
	for cui, g := range state.ConditionToGrouping {
		doc.ConditionToGrouping[strconv.FormatInt(cui, 10)] = g
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	n, err := ss.Latest()
	if err != nil {
		return "", err
	}
	for {
		n++
		path := ss.Path(n)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create snapshot: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("write snapshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close snapshot: %w", err)
		}
		return path, nil
	}
}

// Load reads snapshot n.
func (ss *SnapshotStore) Load(n int) (*State, error) {
	data, err := os.ReadFile(ss.Path(n))
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", n, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", n, err)
	}

	state := &State{
		Unresolved:          doc.UnknownStrings,
		StringToCondition:   doc.StringToCondition,
		ConditionToGrouping: make(map[int64]int64, len(doc.ConditionToGrouping)),
	}
	if state.StringToCondition == nil {
		state.StringToCondition = make(map[string]int64)
	}
	for key, g := range doc.ConditionToGrouping {
		cui, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot %d: condition key %q: %w", n, key, err)
		}
		state.ConditionToGrouping[cui] = g
	}
	return state, nil
}

// LoadLatest reads the highest-numbered snapshot. Fails with ErrNoSnapshot
// when none exist.
func (ss *SnapshotStore) LoadLatest() (*State, error) {
	latest, err := ss.Latest()
	if err != nil {
		return nil, err
	}
	if latest == 0 {
		return nil, ErrNoSnapshot
	}
	return ss.Load(latest)
}

// Clear deletes every snapshot file and returns how many were removed.
// The confirmed flag must come from an explicit operator decision; Clear
// never assumes consent.
func (ss *SnapshotStore) Clear(confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}
	files, err := ss.list()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if _, ok := ss.number(f); !ok {
			continue
		}
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("remove %s: %w", f, err)
		}
		removed++
	}
	return removed, nil
}

func (ss *SnapshotStore) list() ([]string, error) {
	files, err := filepath.Glob(ss.stem + "_mapped_*.json")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return files, nil
}

// number extracts the snapshot number from a file path, rejecting files
// whose suffix is not a plain positive integer.
func (ss *SnapshotStore) number(path string) (int, bool) {
	suffix := strings.TrimSuffix(strings.TrimPrefix(path, ss.stem+"_mapped_"), ".json")
	n, err := strconv.Atoi(suffix)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// snapshotDoc is the JSON wire format. JSON object keys are textual, so the
// condition -> grouping map stores its int64 keys as decimal strings.
type snapshotDoc struct {
	UnknownStrings      []string         `json:"unknown_strings"`
	StringToCondition   map[string]int64 `json:"string_to_condition_cui"`
	ConditionToGrouping map[string]int64 `json:"condition_cui_to_grouping_cui"`
}

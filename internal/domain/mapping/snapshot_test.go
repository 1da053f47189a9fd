package mapping

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshotStore(t *testing.T) *SnapshotStore {
	t.Helper()
	input := filepath.Join(t.TempDir(), "conditions.txt")
	require.NoError(t, os.WriteFile(input, []byte("asthma\nwheeze\n"), 0644))
	return NewSnapshotStore(input)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ss := testSnapshotStore(t)

	s := NewState([]string{"wheeze"})
	s.StringToCondition = map[string]int64{"asthma": 1}
	s.AssignGrouping(1, 9)

	path, err := ss.Save(s)
	require.NoError(t, err)
	assert.Equal(t, ss.Path(1), path)

	loaded, err := ss.Load(1)
	require.NoError(t, err)
	assert.Equal(t, s.Unresolved, loaded.Unresolved)
	assert.Equal(t, s.StringToCondition, loaded.StringToCondition)
	assert.Equal(t, s.ConditionToGrouping, loaded.ConditionToGrouping)
}

func TestSnapshotNumbersGrowAndNeverOverwrite(t *testing.T) {
	ss := testSnapshotStore(t)

	s := NewState([]string{"asthma"})
	first, err := ss.Save(s)
	require.NoError(t, err)

	require.NoError(t, s.Resolve("asthma", 1))
	second, err := ss.Save(s)
	require.NoError(t, err)

	assert.Equal(t, ss.Path(1), first)
	assert.Equal(t, ss.Path(2), second)

	// Snapshot 1 still holds the pre-resolve state.
	old, err := ss.Load(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"asthma"}, old.Unresolved)
	assert.Empty(t, old.StringToCondition)

	latest, err := ss.Latest()
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestSnapshotWireFormat(t *testing.T) {
	ss := testSnapshotStore(t)

	s := NewState([]string{"wheeze"})
	s.StringToCondition = map[string]int64{"asthma": 1}
	s.AssignGrouping(1, 9)

	path, err := ss.Save(s)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "unknown_strings")
	assert.Contains(t, doc, "string_to_condition_cui")
	assert.Contains(t, doc, "condition_cui_to_grouping_cui")

	// JSON object keys are textual: the grouping map's cui keys are
	// decimal strings on disk.
	var groupings map[string]int64
	require.NoError(t, json.Unmarshal(doc["condition_cui_to_grouping_cui"], &groupings))
	assert.Equal(t, map[string]int64{"1": 9}, groupings)
}

func TestLoadLatestWithNoSnapshots(t *testing.T) {
	ss := testSnapshotStore(t)

	_, err := ss.LoadLatest()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	latest, err := ss.Latest()
	require.NoError(t, err)
	assert.Equal(t, 0, latest)
}

func TestLoadLatestPicksHighestNumber(t *testing.T) {
	ss := testSnapshotStore(t)

	s := NewState([]string{"asthma"})
	for i := 0; i < 3; i++ {
		_, err := ss.Save(s)
		require.NoError(t, err)
	}
	require.NoError(t, s.Resolve("asthma", 7))
	_, err := ss.Save(s)
	require.NoError(t, err)

	loaded, err := ss.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"asthma": 7}, loaded.StringToCondition)
}

func TestClearRequiresConfirmation(t *testing.T) {
	ss := testSnapshotStore(t)

	_, err := ss.Save(NewState([]string{"asthma"}))
	require.NoError(t, err)

	_, err = ss.Clear(false)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	// Unconfirmed clear removed nothing.
	latest, err := ss.Latest()
	require.NoError(t, err)
	assert.Equal(t, 1, latest)

	removed, err := ss.Clear(true)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	latest, err = ss.Latest()
	require.NoError(t, err)
	assert.Equal(t, 0, latest)
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.txt")
	require.NoError(t, os.WriteFile(path, []byte("asthma\nwheeze\ncough"), 0644))

	lines, err := ReadInput(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"asthma", "wheeze", "cough"}, lines)

	_, err = ReadInput(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

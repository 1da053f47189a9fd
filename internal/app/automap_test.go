package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrick/snomap/internal/adapters/ahocorasick"
	"github.com/carrick/snomap/internal/domain/mapping"
	"github.com/carrick/snomap/internal/domain/ontology"
	"github.com/carrick/snomap/internal/ports"
)

func fixtureEngine() *ontology.Engine {
	tables := &ports.ReleaseTables{
		Concepts: []ports.Concept{
			{CUI: 195967001, Name: "Asthma (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "2024-01"},
			{CUI: 195967001, Name: "Asthma", Status: ports.Alternate, Release: "2024-01"},
			{CUI: 73211009, Name: "Diabetes mellitus (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "2024-01"},
			{CUI: 46635009, Name: "Diabetes mellitus type 1 (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "2024-01"},
		},
	}
	return ontology.NewEngine(ontology.NewStore(tables))
}

func TestAutoMapResolvesUniqueStrings(t *testing.T) {
	state := mapping.NewState([]string{"asthma", "diabetes", "no such thing"})

	report, err := AutoMap(state, fixtureEngine())
	require.NoError(t, err)

	// "asthma" hits one cui; "diabetes" is a substring of two distinct cuis.
	assert.Equal(t, 1, report.Resolved)
	assert.Equal(t, 2, report.Remaining)
	assert.Equal(t, int64(195967001), state.StringToCondition["asthma"])
	assert.Equal(t, map[string]string{"asthma": "Asthma (disorder)"}, report.Matches)
	assert.Equal(t, []string{"diabetes", "no such thing"}, state.Unresolved)
}

func TestAutoMapEmptyState(t *testing.T) {
	state := mapping.NewState(nil)

	report, err := AutoMap(state, fixtureEngine())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Resolved)
	assert.Equal(t, 0, report.Remaining)
}

func TestAutoMapBulkMatchesLinearScan(t *testing.T) {
	engine := fixtureEngine()
	inputs := []string{"asthma", "diabetes", "diabetes mellitus type 1", "no such thing"}

	linear := mapping.NewState(inputs)
	_, err := AutoMap(linear, engine)
	require.NoError(t, err)

	bulk := mapping.NewState(inputs)
	_, err = AutoMapBulk(bulk, engine, ahocorasick.NewNameMatcher())
	require.NoError(t, err)

	assert.Equal(t, linear.StringToCondition, bulk.StringToCondition)
	assert.Equal(t, linear.Unresolved, bulk.Unresolved)
}

func TestAutoMapBulkMatchesLinearScanWithPaddedInput(t *testing.T) {
	// Padding is stripped when the state is built, so the automaton and
	// the per-string tiers match against the same text.
	engine := fixtureEngine()
	inputs := []string{" asthma ", "\tdiabetes mellitus type 1"}

	linear := mapping.NewState(inputs)
	_, err := AutoMap(linear, engine)
	require.NoError(t, err)

	bulk := mapping.NewState(inputs)
	_, err = AutoMapBulk(bulk, engine, ahocorasick.NewNameMatcher())
	require.NoError(t, err)

	assert.Equal(t, int64(195967001), bulk.StringToCondition["asthma"])
	assert.Equal(t, linear.StringToCondition, bulk.StringToCondition)
	assert.Equal(t, linear.Unresolved, bulk.Unresolved)
}

func TestAutoMapBulkExactBeatsSubstring(t *testing.T) {
	// "diabetes mellitus" matches both diabetes rows as substrings but
	// exactly one row tier-2 (name + " (disorder)"), so it resolves.
	state := mapping.NewState([]string{"diabetes mellitus"})

	report, err := AutoMapBulk(state, fixtureEngine(), ahocorasick.NewNameMatcher())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Resolved)
	assert.Equal(t, int64(73211009), state.StringToCondition["diabetes mellitus"])
}

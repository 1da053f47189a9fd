package bboltcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrick/snomap/internal/ports"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "snomap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testTables() *ports.ReleaseTables {
	return &ports.ReleaseTables{
		Concepts: []ports.Concept{
			{CUI: 1, Name: "Asthma (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "r1"},
			{CUI: 1, Name: "Bronchial asthma", Status: ports.Alternate, Release: "r1"},
		},
		Edges: []ports.Edge{
			{SourceCUI: 1, DestinationCUI: 2, Release: "r1"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := testCache(t)
	tables := testTables()

	require.NoError(t, c.Save("r1", "fp1", tables))

	loaded, err := c.Load("r1", "fp1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, tables.Concepts, loaded.Concepts)
	assert.Equal(t, tables.Edges, loaded.Edges)
}

func TestLoadMissingReleaseIsNil(t *testing.T) {
	c := testCache(t)

	loaded, err := c.Load("never-saved", "fp1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadFingerprintMismatchIsNil(t *testing.T) {
	c := testCache(t)
	require.NoError(t, c.Save("r1", "fp1", testTables()))

	loaded, err := c.Load("r1", "fp2")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveReplacesPreviousEntry(t *testing.T) {
	c := testCache(t)
	require.NoError(t, c.Save("r1", "fp1", testTables()))

	smaller := &ports.ReleaseTables{
		Concepts: []ports.Concept{{CUI: 9, Name: "Cough (finding)", Status: ports.Primary, DescriptionType: "finding", Release: "r1"}},
	}
	require.NoError(t, c.Save("r1", "fp2", smaller))

	loaded, err := c.Load("r1", "fp2")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, smaller.Concepts, loaded.Concepts)
	assert.Empty(t, loaded.Edges)
}

func TestDeleteReleaseIsIdempotent(t *testing.T) {
	c := testCache(t)
	require.NoError(t, c.Save("r1", "fp1", testTables()))

	require.NoError(t, c.DeleteRelease("r1"))
	require.NoError(t, c.DeleteRelease("r1"))

	loaded, err := c.Load("r1", "fp1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

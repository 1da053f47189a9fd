package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrick/snomap/internal/ports"
)

const (
	conceptHeader      = "id\teffectiveTime\tactive\tmoduleId\tdefinitionStatusId\n"
	descriptionHeader  = "id\teffectiveTime\tactive\tmoduleId\tconceptId\tlanguageCode\ttypeId\tterm\tcaseSignificanceId\n"
	relationshipHeader = "id\teffectiveTime\tactive\tmoduleId\tsourceId\tdestinationId\trelationshipGroup\ttypeId\tcharacteristicTypeId\tmodifierId\n"
)

// writeRelease lays out one release directory with the three snapshot files.
func writeRelease(t *testing.T, root, release, concepts, descriptions, relationships string) {
	t.Helper()
	dir := filepath.Join(root, release, "Snapshot", "Terminology")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sct2_Concept_Snapshot.txt"), []byte(concepts), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sct2_Description_Snapshot.txt"), []byte(descriptions), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sct2_Relationship_Snapshot.txt"), []byte(relationships), 0644))
}

func TestLoadReleaseMergesConceptAndDescriptionRows(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "INT_20240101",
		conceptHeader+
			"1\t20240101\t1\t900\t900\n"+
			"2\t20240101\t1\t900\t900\n",
		descriptionHeader+
			"10\t20240101\t1\t900\t1\ten\t900000000000003001\tAsthma (disorder)\t900\n"+
			"11\t20240101\t1\t900\t1\ten\t900000000000013009\tBronchial asthma\t900\n"+
			"12\t20240101\t1\t900\t2\ten\t900000000000003001\tWheeze (finding)\t900\n",
		relationshipHeader+
			"20\t20240101\t1\t900\t1\t2\t0\t116680003\t900\t900\n",
	)

	tables, err := LoadRelease(root, "INT_20240101")
	require.NoError(t, err)

	require.Len(t, tables.Concepts, 3)
	assert.Equal(t, ports.Concept{
		CUI: 1, Name: "Asthma (disorder)", Status: ports.Primary,
		DescriptionType: "disorder", Release: "INT_20240101",
	}, tables.Concepts[0])
	assert.Equal(t, ports.Concept{
		CUI: 1, Name: "Bronchial asthma", Status: ports.Alternate,
		Release: "INT_20240101",
	}, tables.Concepts[1])

	require.Len(t, tables.Edges, 1)
	assert.Equal(t, ports.Edge{SourceCUI: 1, DestinationCUI: 2, Release: "INT_20240101"}, tables.Edges[0])
}

func TestLoadReleaseDropsInactiveRows(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "r1",
		conceptHeader+
			"1\t20240101\t1\t900\t900\n"+
			"2\t20240101\t0\t900\t900\n", // inactive concept
		descriptionHeader+
			"10\t20240101\t1\t900\t1\ten\t900000000000003001\tAsthma\t900\n"+
			"11\t20240101\t0\t900\t1\ten\t900000000000013009\tOld name\t900\n"+ // inactive description
			"12\t20240101\t1\t900\t2\ten\t900000000000003001\tGone (disorder)\t900\n", // concept inactive
		relationshipHeader+
			"20\t20240101\t0\t900\t1\t3\t0\t116680003\t900\t900\n", // inactive edge
	)

	tables, err := LoadRelease(root, "r1")
	require.NoError(t, err)

	require.Len(t, tables.Concepts, 1)
	assert.Equal(t, "Asthma", tables.Concepts[0].Name)
	assert.Empty(t, tables.Edges)
}

func TestLoadReleaseKeepsOnlyIsARelationships(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "r1",
		conceptHeader+"1\t20240101\t1\t900\t900\n",
		descriptionHeader+"10\t20240101\t1\t900\t1\ten\t900000000000003001\tAsthma\t900\n",
		relationshipHeader+
			"20\t20240101\t1\t900\t1\t2\t0\t116680003\t900\t900\n"+
			"21\t20240101\t1\t900\t1\t3\t0\t246075003\t900\t900\n", // causative agent
	)

	tables, err := LoadRelease(root, "r1")
	require.NoError(t, err)
	require.Len(t, tables.Edges, 1)
	assert.Equal(t, int64(2), tables.Edges[0].DestinationCUI)
}

func TestLoadReleaseFailsOnUnknownNameStatusCode(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "r1",
		conceptHeader+"1\t20240101\t1\t900\t900\n",
		descriptionHeader+"10\t20240101\t1\t900\t1\ten\t999000000000000000\tAsthma\t900\n",
		relationshipHeader,
	)

	_, err := LoadRelease(root, "r1")
	assert.ErrorIs(t, err, ErrUnknownNameStatus)
}

func TestLoadReleaseFailsOnMissingFile(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "r1", conceptHeader, descriptionHeader, relationshipHeader)
	require.NoError(t, os.Remove(filepath.Join(root, "r1", "Snapshot", "Terminology", "sct2_Relationship_Snapshot.txt")))

	_, err := LoadRelease(root, "r1")
	assert.ErrorIs(t, err, ErrReleaseFileMissing)
}

func TestLoadReleaseFailsOnAmbiguousFile(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "r1", conceptHeader, descriptionHeader, relationshipHeader)
	dup := filepath.Join(root, "r1", "Snapshot", "Terminology", "sct2_Concept_Snapshot2.txt")
	require.NoError(t, os.WriteFile(dup, []byte(conceptHeader), 0644))

	_, err := LoadRelease(root, "r1")
	assert.ErrorIs(t, err, ErrReleaseFileAmbiguous)
}

func TestLoadReleaseFailsOnUnknownRelease(t *testing.T) {
	_, err := LoadRelease(t.TempDir(), "nope")
	assert.ErrorIs(t, err, ErrReleaseNotFound)
}

func TestListReleasesSorted(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "UK_20240401"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "INT_20240101"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0644))

	releases, err := ListReleases(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"INT_20240101", "UK_20240401"}, releases)
}

func TestFingerprintChangesWhenFileChanges(t *testing.T) {
	root := t.TempDir()
	writeRelease(t, root, "r1",
		conceptHeader+"1\t20240101\t1\t900\t900\n",
		descriptionHeader+"10\t20240101\t1\t900\t1\ten\t900000000000003001\tAsthma\t900\n",
		relationshipHeader,
	)

	before, err := Fingerprint(root, "r1")
	require.NoError(t, err)

	grown := conceptHeader + "1\t20240101\t1\t900\t900\n2\t20240101\t1\t900\t900\n"
	path := filepath.Join(root, "r1", "Snapshot", "Terminology", "sct2_Concept_Snapshot.txt")
	require.NoError(t, os.WriteFile(path, []byte(grown), 0644))

	after, err := Fingerprint(root, "r1")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestDescriptionTypeExtraction(t *testing.T) {
	assert.Equal(t, "disorder", descriptionType("Asthma (disorder)"))
	assert.Equal(t, "body structure", descriptionType("Lung (body structure)"))
	assert.Equal(t, "", descriptionType("Bronchial asthma"))
	assert.Equal(t, "", descriptionType("(leading) paren only at start"))
}

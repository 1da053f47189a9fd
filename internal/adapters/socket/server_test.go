package socket

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrick/snomap/internal/domain/ontology"
	"github.com/carrick/snomap/internal/ports"
)

func testEngine() *ontology.Engine {
	tables := &ports.ReleaseTables{
		Concepts: []ports.Concept{
			{CUI: 195967001, Name: "Asthma (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "2024-01"},
			{CUI: 195967001, Name: "Asthma", Status: ports.Alternate, Release: "2024-01"},
			{CUI: 50043002, Name: "Disorder of respiratory system (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "2024-01"},
			{CUI: 64572001, Name: "Disease (disorder)", Status: ports.Primary, DescriptionType: "disorder", Release: "2024-01"},
		},
		Edges: []ports.Edge{
			{SourceCUI: 195967001, DestinationCUI: 50043002, Release: "2024-01"},
			{SourceCUI: 50043002, DestinationCUI: 64572001, Release: "2024-01"},
		},
	}
	return ontology.NewEngine(ontology.NewStore(tables))
}

func startTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "test.sock")
	srv := NewServer(testEngine(), sockPath)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })

	client := NewClient(sockPath)
	require.True(t, client.Ping(), "daemon should be reachable")
	return srv, client
}

func TestServerSearch(t *testing.T) {
	_, client := startTestServer(t)

	result, err := client.Search("asthma")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	for _, c := range result.Concepts {
		assert.Equal(t, int64(195967001), c.CUI)
	}
}

func TestServerSearchNoMatch(t *testing.T) {
	_, client := startTestServer(t)

	result, err := client.Search("no such thing")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
}

func TestServerUnique(t *testing.T) {
	_, client := startTestServer(t)

	result, err := client.Unique("asthma")
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, int64(195967001), result.CUI)

	result, err = client.Unique("missing")
	require.NoError(t, err)
	assert.False(t, result.OK)
}

func TestServerConcept(t *testing.T) {
	_, client := startTestServer(t)

	result, err := client.Concept(195967001)
	require.NoError(t, err)
	assert.Equal(t, "Asthma (disorder)", result.Primary.Name)
	assert.Len(t, result.Rows, 2)

	_, err = client.Concept(999)
	assert.Error(t, err)
}

func TestServerParentsChildren(t *testing.T) {
	_, client := startTestServer(t)

	parents, err := client.ParentsOf(195967001, true)
	require.NoError(t, err)
	require.Equal(t, 1, parents.Count)
	assert.Equal(t, int64(50043002), parents.Concepts[0].CUI)

	children, err := client.ChildrenOf(50043002, true)
	require.NoError(t, err)
	require.Equal(t, 1, children.Count)
	assert.Equal(t, int64(195967001), children.Concepts[0].CUI)
}

func TestServerAncestors(t *testing.T) {
	_, client := startTestServer(t)

	result, err := client.AncestorsOf(195967001)
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, int64(50043002), result.Ancestors[0].Concept.CUI)
	assert.Equal(t, 1, result.Ancestors[0].Level)
	assert.Equal(t, int64(64572001), result.Ancestors[1].Concept.CUI)
	assert.Equal(t, 2, result.Ancestors[1].Level)
}

func TestServerStatsAndHealth(t *testing.T) {
	srv, client := startTestServer(t)

	stats, err := client.Stats()
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01"}, stats.Releases)
	assert.Equal(t, 4, stats.ConceptCount)
	assert.Equal(t, 3, stats.CUICount)
	assert.Equal(t, 2, stats.EdgeCount)

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Stale)

	srv.MarkStale()
	health, err = client.Health()
	require.NoError(t, err)
	assert.True(t, health.Stale)
}

func TestServerUnknownMethod(t *testing.T) {
	_, client := startTestServer(t)

	err := client.call("bogus", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method")
}

func TestServerShutdown(t *testing.T) {
	srv, client := startTestServer(t)

	require.NoError(t, client.Shutdown())

	select {
	case <-srv.ShutdownCh():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown channel not closed")
	}
}

func TestServerQuerierInterface(t *testing.T) {
	_, client := startTestServer(t)

	var q ports.Querier = client
	cui, ok, err := q.FindUniqueCUI("asthma")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(195967001), cui)
}

func TestServerRejectsSecondInstance(t *testing.T) {
	srv, _ := startTestServer(t)

	other := NewServer(testEngine(), srv.Addr())
	assert.Error(t, other.Start())
}

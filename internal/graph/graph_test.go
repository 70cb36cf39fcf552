package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/graph"
)

func buildChain(t *testing.T, s *graph.Storage, name string, n int) {
	t.Helper()
	require.NoError(t, s.CreateGraph(name))
	for i := 1; i <= n; i++ {
		require.NoError(t, s.PutNode(name, graph.Node{ID: int64(i), Properties: kadedb.NewDocument()}))
	}
	for i := 1; i < n; i++ {
		require.NoError(t, s.PutEdge(name, graph.Edge{
			ID: int64(i), From: int64(i), To: int64(i + 1), Type: "NEXT", Properties: kadedb.NewDocument(),
		}))
	}
}

func TestBFSDFSOrder(t *testing.T) {
	s := graph.NewStorage()
	buildChain(t, s, "g", 4)

	bfs, err := s.BFS("g", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, bfs)

	dfs, err := s.DFS("g", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, dfs)
}

func TestShortestPathAndConnectedQuery(t *testing.T) {
	s := graph.NewStorage()
	buildChain(t, s, "g", 4)

	rs, err := s.ExecuteQuery("SHORTEST_PATH g FROM 1 TO 4")
	require.NoError(t, err)
	require.Equal(t, 4, rs.RowCount())

	rs, err = s.ExecuteQuery("CONNECTED g FROM 1 TO 4")
	require.NoError(t, err)
	row, ok := rs.Row(1)
	require.True(t, ok)
	b, _ := row.Cells[0].AsBool()
	assert.True(t, b)
}

func TestEraseNodeRemovesIncidentEdges(t *testing.T) {
	s := graph.NewStorage()
	buildChain(t, s, "g", 3)

	require.NoError(t, s.EraseNode("g", 2))
	_, err := s.GetEdge("g", 1)
	require.Error(t, err)
	assert.True(t, kadedb.IsNotFound(err))
}

func TestMatchQueryFiltersByEdgeType(t *testing.T) {
	s := graph.NewStorage()
	require.NoError(t, s.CreateGraph("g"))
	require.NoError(t, s.PutNode("g", graph.Node{ID: 1, Properties: kadedb.NewDocument()}))
	require.NoError(t, s.PutNode("g", graph.Node{ID: 2, Properties: kadedb.NewDocument()}))
	require.NoError(t, s.PutNode("g", graph.Node{ID: 3, Properties: kadedb.NewDocument()}))
	require.NoError(t, s.PutEdge("g", graph.Edge{ID: 1, From: 1, To: 2, Type: "FOLLOWS", Properties: kadedb.NewDocument()}))
	require.NoError(t, s.PutEdge("g", graph.Edge{ID: 2, From: 1, To: 3, Type: "BLOCKS", Properties: kadedb.NewDocument()}))

	rs, err := s.ExecuteQuery("MATCH g (a)-[:FOLLOWS]->(b) WHERE a = 1 RETURN b")
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())
	row, _ := rs.Row(1)
	id, _ := row.Cells[0].AsInt()
	assert.Equal(t, int64(2), id)
}

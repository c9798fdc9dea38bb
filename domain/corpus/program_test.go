package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/graph"
)

func buildGraph(t *testing.T, apis []string, edges []graph.Edge) *graph.Program {
	t.Helper()
	nodes := make([]graph.Node, 0, len(apis))
	for i, api := range apis {
		nodes = append(nodes, graph.NewNode(graph.NodeID(i+1), graph.NodeCall).WithAPI(api))
	}
	g, err := graph.New(nodes, edges)
	require.NoError(t, err)
	return g
}

func TestProgram_ContainsAPIs(t *testing.T) {
	p := NewProgram("p1", "numpy", "x = np.mean(a)", buildGraph(t, []string{"np.mean", "np.std"}, nil))

	assert.True(t, p.ContainsAPIs([]string{"np.mean"}))
	assert.True(t, p.ContainsAPIs([]string{"np.mean", "np.std"}))
	assert.False(t, p.ContainsAPIs([]string{"np.mean", "np.sum"}), "every API must be present")
	assert.True(t, p.ContainsAPIs(nil), "the empty set is vacuously contained")

	empty := NewProgram("p2", "numpy", "", nil)
	assert.False(t, empty.ContainsAPIs([]string{"np.mean"}))
}

func TestWitnesses(t *testing.T) {
	edge := graph.NewEdge(1, 2, graph.EdgeData)
	pattern := buildGraph(t, []string{"read", "parse"}, []graph.Edge{edge})

	with := NewProgram("w1", "test", "", buildGraph(t, []string{"read", "parse"}, []graph.Edge{edge}))
	without := NewProgram("w2", "test", "", buildGraph(t, []string{"read", "log"}, []graph.Edge{edge}))
	alsoWith := NewProgram("w3", "test", "", buildGraph(t, []string{"read", "parse", "log"}, []graph.Edge{edge}))

	got := Witnesses(pattern, []Program{with, without, alsoWith})
	require.Len(t, got, 2)
	assert.Equal(t, "w1", got[0].ID(), "host order is preserved")
	assert.Equal(t, "w3", got[1].ID())

	assert.True(t, Contains(pattern, with))
	assert.False(t, Contains(pattern, without))
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callNode(id int, api string) Node {
	return NewNode(NodeID(id), NodeCall).WithAPI(api)
}

func varNode(id int) Node {
	return NewNode(NodeID(id), NodeVariable)
}

func data(from, to int) Edge {
	return NewEdge(NodeID(from), NodeID(to), EdgeData)
}

func control(from, to int) Edge {
	return NewEdge(NodeID(from), NodeID(to), EdgeControl)
}

func mustNew(t *testing.T, nodes []Node, edges []Edge) *Program {
	t.Helper()
	p, err := New(nodes, edges)
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
	}{
		{
			name:  "invalid node kind",
			nodes: []Node{NewNode(1, NodeKind("statement"))},
		},
		{
			name:  "duplicate node id",
			nodes: []Node{callNode(1, "a"), callNode(1, "b")},
		},
		{
			name:  "invalid edge kind",
			nodes: []Node{callNode(1, "a"), callNode(2, "b")},
			edges: []Edge{NewEdge(1, 2, EdgeKind("calls"))},
		},
		{
			name:  "self loop",
			nodes: []Node{callNode(1, "a")},
			edges: []Edge{data(1, 1)},
		},
		{
			name:  "unknown edge source",
			nodes: []Node{callNode(1, "a")},
			edges: []Edge{data(9, 1)},
		},
		{
			name:  "unknown edge target",
			nodes: []Node{callNode(1, "a")},
			edges: []Edge{data(1, 9)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.nodes, tt.edges)
			assert.Error(t, err)
		})
	}
}

func TestProgram_Adjacency(t *testing.T) {
	p := mustNew(t,
		[]Node{callNode(1, "a"), callNode(2, "b"), callNode(3, "c")},
		[]Edge{data(1, 2), control(3, 2)},
	)

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []NodeID{2}, p.Successors(1))
	assert.Equal(t, []NodeID{1, 3}, p.Predecessors(2))
	assert.Equal(t, []NodeID{1, 3}, p.Neighborhood(2), "frontier is radial, both directions")
	assert.Empty(t, p.Successors(2))
}

func TestProgram_APIs(t *testing.T) {
	p := mustNew(t,
		[]Node{callNode(1, "np.mean"), callNode(2, "np.mean"), callNode(3, "np.std"), varNode(4)},
		nil,
	)

	assert.Equal(t, []string{"np.mean", "np.std"}, p.APIs())
	assert.Equal(t, []NodeID{1, 2}, p.NodesWithAPI("np.mean"))
	assert.Empty(t, p.NodesWithAPI("np.sum"))
}

func TestProgram_Induced(t *testing.T) {
	p := mustNew(t,
		[]Node{callNode(1, "a"), callNode(2, "b"), callNode(3, "c")},
		[]Edge{data(1, 2), data(2, 3), data(1, 3)},
	)

	sub, err := p.Induced([]NodeID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	require.Len(t, sub.Edges(), 1, "edges to dropped nodes are excluded")
	assert.Equal(t, NodeID(1), sub.Edges()[0].From())
	assert.Equal(t, NodeID(2), sub.Edges()[0].To())

	_, err = p.Induced([]NodeID{1, 99})
	assert.Error(t, err)
}

func TestProgram_Connected(t *testing.T) {
	connected := mustNew(t,
		[]Node{callNode(1, "a"), callNode(2, "b")},
		[]Edge{data(1, 2)},
	)
	assert.True(t, connected.Connected())

	split := mustNew(t,
		[]Node{callNode(1, "a"), callNode(2, "b")},
		nil,
	)
	assert.False(t, split.Connected())

	empty := mustNew(t, nil, nil)
	assert.False(t, empty.Connected())
}

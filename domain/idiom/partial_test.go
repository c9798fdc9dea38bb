package idiom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/oracle"
)

func callNode(id int, api string) graph.Node {
	return graph.NewNode(graph.NodeID(id), graph.NodeCall).WithAPI(api)
}

func data(from, to int) graph.Edge {
	return graph.NewEdge(graph.NodeID(from), graph.NodeID(to), graph.EdgeData)
}

// chainHost is read -> parse -> store with a side branch read -> log.
func chainHost(t *testing.T, id string) corpus.Program {
	t.Helper()
	g, err := graph.New(
		[]graph.Node{
			callNode(1, "read"), callNode(2, "parse"),
			callNode(3, "store"), callNode(4, "log"),
		},
		[]graph.Edge{data(1, 2), data(2, 3), data(1, 4)},
	)
	require.NoError(t, err)
	return corpus.NewProgram(id, "test", "", g)
}

func TestNewSeed(t *testing.T) {
	host := chainHost(t, "h1")
	p, err := NewSeed(host, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Size())
	assert.Equal(t, graph.NodeID(1), p.Anchor())
	assert.Equal(t, []graph.NodeID{1}, p.Nodes())
	assert.Equal(t, []graph.NodeID{2, 4}, p.Frontier())
	assert.Equal(t, []string{"h1"}, p.Witnesses(), "a seed witnesses its own host")
	assert.NotEmpty(t, p.Signature())

	_, scored := p.Score()
	assert.False(t, scored)
	assert.Equal(t, 1, p.Support(), "unscored support is the witness count")
}

func TestNewSeed_UnknownAnchor(t *testing.T) {
	_, err := NewSeed(chainHost(t, "h1"), 99)
	assert.Error(t, err)
}

func TestPartial_Extend(t *testing.T) {
	p, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)

	grown, err := p.Extend(2)
	require.NoError(t, err)

	assert.Equal(t, 2, grown.Size())
	assert.Equal(t, []graph.NodeID{1, 2}, grown.Nodes(), "growth order preserved, anchor first")
	assert.Equal(t, []graph.NodeID{3, 4}, grown.Frontier(), "frontier advances past absorbed nodes")
	assert.NotEqual(t, p.Signature(), grown.Signature())

	// The original is untouched.
	assert.Equal(t, 1, p.Size())
	assert.Equal(t, []graph.NodeID{2, 4}, p.Frontier())
}

func TestPartial_ExtendOffFrontier(t *testing.T) {
	p, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)

	_, err = p.Extend(3)
	assert.Error(t, err, "node 3 is two hops away; growth never skips")
}

func TestPartial_ExtendClearsScore(t *testing.T) {
	p, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)
	p = p.WithScore(oracle.NewScore(oracle.Vector{1}, 5))

	grown, err := p.Extend(2)
	require.NoError(t, err)

	_, scored := grown.Score()
	assert.False(t, scored, "a grown candidate must be rescored")
}

func TestPartial_ExtensionsRespectKindFilter(t *testing.T) {
	g, err := graph.New(
		[]graph.Node{
			callNode(1, "read"),
			graph.NewNode(2, graph.NodeVariable),
			callNode(3, "parse"),
		},
		[]graph.Edge{data(1, 2), data(1, 3)},
	)
	require.NoError(t, err)
	host := corpus.NewProgram("h", "test", "", g)

	p, err := NewSeed(host, 1)
	require.NoError(t, err)

	assert.Equal(t, []graph.NodeID{2, 3}, p.Extensions(nil))

	callsOnly := func(k graph.NodeKind) bool { return k == graph.NodeCall }
	assert.Equal(t, []graph.NodeID{3}, p.Extensions(callsOnly))
}

func TestPartial_WitnessSets(t *testing.T) {
	p, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)

	p = p.AddWitness("h2").AddWitness("h3")
	assert.Equal(t, []string{"h1", "h2", "h3"}, p.Witnesses())
	assert.Equal(t, 3, p.Support())

	replaced := p.WithWitnesses([]string{"h1", "h2"})
	assert.Equal(t, []string{"h1", "h2"}, replaced.Witnesses(), "replacement drops stale witnesses")
	assert.Equal(t, []string{"h1", "h2", "h3"}, p.Witnesses())

	other, err := NewSeed(chainHost(t, "h9"), 1)
	require.NoError(t, err)
	merged := replaced.MergeWitnesses(other)
	assert.Equal(t, []string{"h1", "h2", "h9"}, merged.Witnesses())
}

func TestPartial_ScoredSupportWinsOverWitnesses(t *testing.T) {
	p, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)
	p = p.AddWitness("h2")

	p = p.WithScore(oracle.NewScore(oracle.Vector{0.5}, 40))
	assert.Equal(t, 40, p.Support(), "the oracle estimate replaces exact witness counting")
}

func TestPartial_SignatureMatchesAcrossHosts(t *testing.T) {
	a, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)
	b, err := NewSeed(chainHost(t, "h2"), 1)
	require.NoError(t, err)

	assert.Equal(t, a.Signature(), b.Signature())

	grownA, err := a.Extend(2)
	require.NoError(t, err)
	grownB, err := b.Extend(2)
	require.NoError(t, err)
	assert.Equal(t, grownA.Signature(), grownB.Signature())
}

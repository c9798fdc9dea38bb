package idiom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/oracle"
)

// fanHost carries one call node per API, all distinct labels.
func fanHost(t *testing.T, id string, apis ...string) corpus.Program {
	t.Helper()
	nodes := make([]graph.Node, 0, len(apis))
	for i, api := range apis {
		nodes = append(nodes, callNode(i+1, api))
	}
	g, err := graph.New(nodes, nil)
	require.NoError(t, err)
	return corpus.NewProgram(id, "test", "", g)
}

func seed(t *testing.T, host corpus.Program, anchor int) Partial {
	t.Helper()
	p, err := NewSeed(host, graph.NodeID(anchor))
	require.NoError(t, err)
	return p
}

func TestBeam_AddIgnoresWrongSize(t *testing.T) {
	host := chainHost(t, "h1")
	b := NewBeam(2, 10)

	b.Add(seed(t, host, 1)) // size 1 into a size-2 beam
	assert.Zero(t, b.Len())
}

func TestBeam_AddMergesDuplicateSignatures(t *testing.T) {
	b := NewBeam(1, 10)
	b.Add(seed(t, chainHost(t, "h1"), 1))
	b.Add(seed(t, chainHost(t, "h2"), 1))

	require.Equal(t, 1, b.Len(), "same signature is the same candidate")
	assert.Equal(t, []string{"h1", "h2"}, b.Partials()[0].Witnesses())
}

func TestBeam_AddKeepsExistingScore(t *testing.T) {
	b := NewBeam(1, 10)
	scored := seed(t, chainHost(t, "h1"), 1).WithScore(oracle.NewScore(oracle.Vector{1}, 7))
	b.Add(scored)
	b.Add(seed(t, chainHost(t, "h2"), 1))

	got, ok := b.Partials()[0].Score()
	require.True(t, ok)
	assert.Equal(t, 7, got.Support())
}

func TestBeam_AddAdoptsIncomingScore(t *testing.T) {
	b := NewBeam(1, 10)
	b.Add(seed(t, chainHost(t, "h1"), 1))
	b.Add(seed(t, chainHost(t, "h2"), 1).WithScore(oracle.NewScore(oracle.Vector{1}, 7)))

	got, ok := b.Partials()[0].Score()
	require.True(t, ok)
	assert.Equal(t, 7, got.Support())
}

func TestBeam_PartialsOrder(t *testing.T) {
	host := fanHost(t, "h", "a", "b", "c")
	b := NewBeam(1, 10)
	b.Add(seed(t, host, 1).WithScore(oracle.NewScore(nil, 2)))
	b.Add(seed(t, host, 2).WithScore(oracle.NewScore(nil, 9)))
	b.Add(seed(t, host, 3).WithScore(oracle.NewScore(nil, 2)))

	ranked := b.Partials()
	require.Len(t, ranked, 3)
	assert.Equal(t, 9, ranked[0].Support())
	assert.Equal(t, 2, ranked[1].Support())
	assert.Equal(t, 2, ranked[2].Support())
	assert.Less(t, ranked[1].Signature(), ranked[2].Signature(),
		"support ties break by signature for determinism")
}

func TestBeam_Cut(t *testing.T) {
	host := fanHost(t, "h", "a", "b", "c", "d")
	b := NewBeam(1, 2)
	for i, support := range []int{5, 9, 1, 7} {
		b.Add(seed(t, host, i+1).WithScore(oracle.NewScore(nil, support)))
	}

	survivors := b.Cut()
	require.Len(t, survivors, 2)
	assert.Equal(t, 9, survivors[0].Support())
	assert.Equal(t, 7, survivors[1].Support())
	assert.Equal(t, 2, b.Len(), "cut members leave the beam")
}

func TestBeam_CutUnderWidth(t *testing.T) {
	host := fanHost(t, "h", "a")
	b := NewBeam(1, 10)
	b.Add(seed(t, host, 1))

	survivors := b.Cut()
	assert.Len(t, survivors, 1)
	assert.Equal(t, 1, b.Len())
}

func TestBeam_ReplaceAndRemove(t *testing.T) {
	host := fanHost(t, "h", "a", "b")
	b := NewBeam(1, 10)
	p := seed(t, host, 1)
	b.Add(p)
	b.Add(seed(t, host, 2))

	b.Replace(p.WithScore(oracle.NewScore(nil, 3)))
	got, ok := b.Partials()[0].Score()
	require.True(t, ok)
	assert.Equal(t, 3, got.Support())

	// Replace is a no-op for unknown signatures.
	stranger := seed(t, chainHost(t, "h9"), 2)
	b.Replace(stranger)
	assert.Equal(t, 2, b.Len())

	b.Remove(p.Signature())
	assert.Equal(t, 1, b.Len())
}

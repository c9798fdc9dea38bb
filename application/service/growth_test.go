package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/internal/config"
)

func variable(id int) graph.Node {
	return graph.NewNode(graph.NodeID(id), graph.NodeVariable)
}

func seededBeam(t *testing.T, host corpus.Program, anchor int) *idiom.Beam {
	t.Helper()
	beam := idiom.NewBeam(1, 10)
	p, err := idiom.NewSeed(host, graph.NodeID(anchor))
	require.NoError(t, err)
	beam.Add(p)
	return beam
}

func TestGrowthEngine_Grow(t *testing.T) {
	host := mustProgram(t, "h",
		[]graph.Node{call(1, "a"), call(2, "b")},
		[]graph.Edge{dataEdge(1, 2)},
	)
	cfg := config.NewSearchConfigWithOptions()
	e := NewGrowthEngine(&containmentScorer{hosts: []corpus.Program{host}}, nil, cfg, slog.Default())

	next, err := e.Grow(context.Background(), seededBeam(t, host, 1), []corpus.Program{host})
	require.NoError(t, err)

	require.Equal(t, 1, next.Len())
	grown := next.Partials()[0]
	assert.Equal(t, 2, grown.Size())
	assert.Equal(t, []string{"a", "b"}, grown.APIs())
	assert.Equal(t, []string{"h"}, grown.Witnesses())

	score, ok := grown.Score()
	require.True(t, ok, "grown candidates must be scored")
	assert.Equal(t, 1, score.Support())
}

func TestGrowthEngine_KindFilterBlocksGrowth(t *testing.T) {
	// The only frontier node is a variable; a calls-only whitelist makes the
	// lineage a dead end.
	host := mustProgram(t, "h",
		[]graph.Node{call(1, "a"), variable(2), call(3, "b")},
		[]graph.Edge{dataEdge(1, 2), dataEdge(2, 3)},
	)
	cfg := config.NewSearchConfigWithOptions(
		config.WithAllowedNodeKinds([]string{string(graph.NodeCall)}),
	)
	e := NewGrowthEngine(&containmentScorer{hosts: []corpus.Program{host}}, nil, cfg, slog.Default())

	next, err := e.Grow(context.Background(), seededBeam(t, host, 1), []corpus.Program{host})
	require.NoError(t, err)
	assert.Zero(t, next.Len())
}

func TestGrowthEngine_CutEnforcesBeamWidth(t *testing.T) {
	// A star anchor with five leaves produces five distinct extensions.
	nodes := []graph.Node{call(1, "hub")}
	var edges []graph.Edge
	leaves := []string{"a", "b", "c", "d", "e"}
	for i, api := range leaves {
		id := i + 2
		nodes = append(nodes, call(id, api))
		edges = append(edges, dataEdge(1, id))
	}
	host := mustProgram(t, "h", nodes, edges)

	cfg := config.NewSearchConfigWithOptions(config.WithBeamWidth(2))
	e := NewGrowthEngine(&containmentScorer{hosts: []corpus.Program{host}}, nil, cfg, slog.Default())

	beam := idiom.NewBeam(1, 2)
	p, err := idiom.NewSeed(host, 1)
	require.NoError(t, err)
	beam.Add(p)

	next, err := e.Grow(context.Background(), beam, []corpus.Program{host})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Len(), "the cut keeps only the beam width")
	assert.Equal(t, 2, next.Width())
}

// scriptedScorer returns a canned score per API set, keyed by the sorted
// joined API list of the candidate.
type scriptedScorer struct {
	scores map[string]oracle.Score
}

func (s *scriptedScorer) Score(_ context.Context, g *graph.Program, _ graph.NodeID) (oracle.Score, error) {
	key := strings.Join(g.APIs(), ",")
	score, ok := s.scores[key]
	if !ok {
		return oracle.Score{}, fmt.Errorf("no scripted score for %q", key)
	}
	return score, nil
}

func TestGrowthEngine_CutPenalizesNearIdenticalVariants(t *testing.T) {
	// Star anchor with three leaves: b and c embed almost identically with
	// the highest supports, d is orthogonal with the lowest. A pure support
	// cut at width 2 would keep {b, c}; the diversity-penalized cut must
	// defer the near-duplicate and keep the distinct d lineage.
	host := mustProgram(t, "h",
		[]graph.Node{call(1, "hub"), call(2, "b"), call(3, "c"), call(4, "d")},
		[]graph.Edge{dataEdge(1, 2), dataEdge(1, 3), dataEdge(1, 4)},
	)
	scorer := &scriptedScorer{scores: map[string]oracle.Score{
		"b,hub": oracle.NewScore(oracle.Vector{1, 0}, 5),
		"c,hub": oracle.NewScore(oracle.Vector{1, 0.01}, 4),
		"d,hub": oracle.NewScore(oracle.Vector{0, 1}, 2),
	}}
	cfg := config.NewSearchConfigWithOptions(
		config.WithBeamWidth(2),
		config.WithNearDupDistance(0.05),
	)
	e := NewGrowthEngine(scorer, nil, cfg, slog.Default())

	beam := idiom.NewBeam(1, 2)
	p, err := idiom.NewSeed(host, 1)
	require.NoError(t, err)
	beam.Add(p)

	next, err := e.Grow(context.Background(), beam, []corpus.Program{host})
	require.NoError(t, err)

	require.Equal(t, 2, next.Len())
	var apis [][]string
	for _, kept := range next.Partials() {
		apis = append(apis, kept.APIs())
	}
	assert.Contains(t, apis, []string{"b", "hub"})
	assert.Contains(t, apis, []string{"d", "hub"}, "the diverse lineage survives the cut")
	assert.NotContains(t, apis, []string{"c", "hub"}, "the near-identical variant is deferred out")
}

func TestGrowthEngine_DeferredVariantsFillShortBeams(t *testing.T) {
	// Two near-duplicate pairs at width 3: after the diverse pass keeps one
	// member of each pair, the best deferred variant fills the last slot.
	// Deferral is a penalty, not a ban.
	host := mustProgram(t, "h",
		[]graph.Node{call(1, "hub"), call(2, "b"), call(3, "c"), call(4, "d"), call(5, "e")},
		[]graph.Edge{dataEdge(1, 2), dataEdge(1, 3), dataEdge(1, 4), dataEdge(1, 5)},
	)
	scorer := &scriptedScorer{scores: map[string]oracle.Score{
		"b,hub": oracle.NewScore(oracle.Vector{1, 0}, 5),
		"c,hub": oracle.NewScore(oracle.Vector{1, 0.01}, 4),
		"d,hub": oracle.NewScore(oracle.Vector{0, 1}, 3),
		"e,hub": oracle.NewScore(oracle.Vector{0.01, 1}, 2),
	}}
	cfg := config.NewSearchConfigWithOptions(
		config.WithBeamWidth(3),
		config.WithNearDupDistance(0.05),
	)
	e := NewGrowthEngine(scorer, nil, cfg, slog.Default())

	beam := idiom.NewBeam(1, 3)
	p, err := idiom.NewSeed(host, 1)
	require.NoError(t, err)
	beam.Add(p)

	next, err := e.Grow(context.Background(), beam, []corpus.Program{host})
	require.NoError(t, err)

	require.Equal(t, 3, next.Len())
	var apis [][]string
	for _, kept := range next.Partials() {
		apis = append(apis, kept.APIs())
	}
	assert.Contains(t, apis, []string{"c", "hub"}, "the best deferred variant takes the open slot")
	assert.NotContains(t, apis, []string{"e", "hub"})
}

func TestGrowthEngine_MergesDuplicateExtensions(t *testing.T) {
	// Two anchors with the same label extend to structurally identical
	// subgraphs; the beam must hold one candidate with both witnesses.
	h1 := mustProgram(t, "h1",
		[]graph.Node{call(1, "a"), call(2, "b")},
		[]graph.Edge{dataEdge(1, 2)},
	)
	h2 := mustProgram(t, "h2",
		[]graph.Node{call(7, "a"), call(8, "b")},
		[]graph.Edge{dataEdge(7, 8)},
	)
	hosts := []corpus.Program{h1, h2}

	cfg := config.NewSearchConfigWithOptions()
	e := NewGrowthEngine(&containmentScorer{hosts: hosts}, nil, cfg, slog.Default())

	beam := idiom.NewBeam(1, 10)
	p1, err := idiom.NewSeed(h1, 1)
	require.NoError(t, err)
	p2, err := idiom.NewSeed(h2, 7)
	require.NoError(t, err)
	beam.Add(p1)
	beam.Add(p2)
	require.Equal(t, 1, beam.Len(), "identical seeds merge by signature")

	next, err := e.Grow(context.Background(), beam, hosts)
	require.NoError(t, err)

	require.Equal(t, 1, next.Len())
	assert.Equal(t, []string{"h1", "h2"}, next.Partials()[0].Witnesses())
}

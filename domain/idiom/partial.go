// Package idiom provides the idiom domain model: partial idioms grown
// node-by-node inside host programs, size-bounded beams of candidates, and
// emitted idioms with persisted ranks.
package idiom

import (
	"fmt"
	"sort"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/oracle"
)

// Partial is an idiom-in-progress: a connected subgraph of one host
// program, grown strictly one node at a time from an anchor. Two partials
// with the same canonical signature are the same entity; merging them
// unions their witness sets.
type Partial struct {
	host      corpus.Program
	anchor    graph.NodeID
	nodes     []graph.NodeID
	visited   map[graph.NodeID]struct{}
	frontier  []graph.NodeID
	signature string
	score     oracle.Score
	scored    bool
	witnesses map[string]struct{}
}

// NewSeed creates a size-1 partial idiom anchored at the given node of the
// host program.
func NewSeed(host corpus.Program, anchor graph.NodeID) (Partial, error) {
	g := host.Graph()
	if g == nil {
		return Partial{}, fmt.Errorf("seed %s: host has no graph", host.ID())
	}
	if _, ok := g.Node(anchor); !ok {
		return Partial{}, fmt.Errorf("seed %s: unknown anchor node %d", host.ID(), anchor)
	}

	p := Partial{
		host:      host,
		anchor:    anchor,
		nodes:     []graph.NodeID{anchor},
		visited:   map[graph.NodeID]struct{}{anchor: {}},
		witnesses: map[string]struct{}{host.ID(): {}},
	}
	p.frontier = p.computeFrontier()

	sub, err := p.Graph()
	if err != nil {
		return Partial{}, err
	}
	p.signature = graph.Signature(sub, anchor)
	return p, nil
}

// Host returns the representative host program.
func (p Partial) Host() corpus.Program { return p.host }

// Anchor returns the anchor node ID within the host graph.
func (p Partial) Anchor() graph.NodeID { return p.anchor }

// Size returns the node count.
func (p Partial) Size() int { return len(p.nodes) }

// Nodes returns the host node IDs in growth order; the first is the anchor.
func (p Partial) Nodes() []graph.NodeID {
	out := make([]graph.NodeID, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// Signature returns the canonical signature.
func (p Partial) Signature() string { return p.signature }

// Frontier returns the host nodes one hop away from the partial idiom,
// ascending, excluding already-visited nodes.
func (p Partial) Frontier() []graph.NodeID {
	out := make([]graph.NodeID, len(p.frontier))
	copy(out, p.frontier)
	return out
}

// Graph returns the induced subgraph of the host over the partial's nodes.
func (p Partial) Graph() (*graph.Program, error) {
	return p.host.Graph().Induced(p.nodes)
}

// APIs returns the distinct API identifiers inside the partial idiom.
func (p Partial) APIs() []string {
	sub, err := p.Graph()
	if err != nil {
		return nil
	}
	return sub.APIs()
}

// Score returns the oracle score and whether one has been assigned.
func (p Partial) Score() (oracle.Score, bool) { return p.score, p.scored }

// WithScore returns a copy carrying the oracle score.
func (p Partial) WithScore(s oracle.Score) Partial {
	q := p.clone()
	q.score = s
	q.scored = true
	return q
}

// Support returns the estimated support, or the witness count before the
// partial has been scored.
func (p Partial) Support() int {
	if p.scored {
		return p.score.Support()
	}
	return len(p.witnesses)
}

// Witnesses returns the IDs of host programs known to contain this idiom,
// sorted.
func (p Partial) Witnesses() []string {
	out := make([]string, 0, len(p.witnesses))
	for id := range p.witnesses {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AddWitness returns a copy whose witness set includes the program ID.
func (p Partial) AddWitness(id string) Partial {
	q := p.clone()
	q.witnesses[id] = struct{}{}
	return q
}

// WithWitnesses returns a copy whose witness set is exactly the given IDs.
// Used after growth, when containment must be re-established from scratch.
func (p Partial) WithWitnesses(ids []string) Partial {
	q := p.clone()
	q.witnesses = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		q.witnesses[id] = struct{}{}
	}
	return q
}

// MergeWitnesses returns a copy whose witness set is the union with other's.
// Caller is responsible for only merging partials with equal signatures.
func (p Partial) MergeWitnesses(other Partial) Partial {
	q := p.clone()
	for id := range other.witnesses {
		q.witnesses[id] = struct{}{}
	}
	return q
}

// Extensions returns the frontier nodes whose kind is allowed, ascending.
// An empty result means the lineage cannot grow further.
func (p Partial) Extensions(allowed func(graph.NodeKind) bool) []graph.NodeID {
	var out []graph.NodeID
	for _, id := range p.frontier {
		n, ok := p.host.Graph().Node(id)
		if !ok {
			continue
		}
		if allowed == nil || allowed(n.Kind()) {
			out = append(out, id)
		}
	}
	return out
}

// Extend returns the size+1 partial produced by absorbing one frontier
// node. The node must be on the frontier; growth never skips sizes.
func (p Partial) Extend(node graph.NodeID) (Partial, error) {
	onFrontier := false
	for _, id := range p.frontier {
		if id == node {
			onFrontier = true
			break
		}
	}
	if !onFrontier {
		return Partial{}, fmt.Errorf("extend: node %d not on frontier", node)
	}

	q := p.clone()
	q.nodes = append(q.nodes, node)
	q.visited[node] = struct{}{}
	q.frontier = q.computeFrontier()
	q.scored = false
	q.score = oracle.Score{}

	sub, err := q.Graph()
	if err != nil {
		return Partial{}, fmt.Errorf("extend: %w", err)
	}
	q.signature = graph.Signature(sub, q.anchor)
	return q, nil
}

// computeFrontier is the radial one-hop neighborhood of the idiom minus
// the idiom itself.
func (p Partial) computeFrontier() []graph.NodeID {
	g := p.host.Graph()
	seen := make(map[graph.NodeID]struct{})
	for _, id := range p.nodes {
		for _, adj := range g.Neighborhood(id) {
			if _, in := p.visited[adj]; in {
				continue
			}
			seen[adj] = struct{}{}
		}
	}
	out := make([]graph.NodeID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Partial) clone() Partial {
	q := p
	q.nodes = make([]graph.NodeID, len(p.nodes))
	copy(q.nodes, p.nodes)
	q.visited = make(map[graph.NodeID]struct{}, len(p.visited))
	for id := range p.visited {
		q.visited[id] = struct{}{}
	}
	q.frontier = make([]graph.NodeID, len(p.frontier))
	copy(q.frontier, p.frontier)
	q.witnesses = make(map[string]struct{}, len(p.witnesses))
	for id := range p.witnesses {
		q.witnesses[id] = struct{}{}
	}
	return q
}

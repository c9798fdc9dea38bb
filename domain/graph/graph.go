package graph

import (
	"fmt"
	"sort"
)

// Program is a directed attributed dependence graph of one corpus program.
// Immutable once constructed; identity is structural, not positional.
type Program struct {
	nodes map[NodeID]Node
	out   map[NodeID][]Edge
	in    map[NodeID][]Edge
	edges []Edge
}

// New constructs a Program from nodes and edges. Edge endpoints must refer
// to known nodes; self-loops are rejected because dependence edges relate
// distinct statements.
func New(nodes []Node, edges []Edge) (*Program, error) {
	p := &Program{
		nodes: make(map[NodeID]Node, len(nodes)),
		out:   make(map[NodeID][]Edge),
		in:    make(map[NodeID][]Edge),
	}

	for _, n := range nodes {
		if !n.Kind().Valid() {
			return nil, fmt.Errorf("node %d: invalid kind %q", n.ID(), n.Kind())
		}
		if _, dup := p.nodes[n.ID()]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID())
		}
		p.nodes[n.ID()] = n
	}

	for _, e := range edges {
		if !e.Kind().Valid() {
			return nil, fmt.Errorf("edge %d->%d: invalid kind %q", e.From(), e.To(), e.Kind())
		}
		if e.From() == e.To() {
			return nil, fmt.Errorf("edge %d->%d: self-loop", e.From(), e.To())
		}
		if _, ok := p.nodes[e.From()]; !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown source", e.From(), e.To())
		}
		if _, ok := p.nodes[e.To()]; !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown target", e.From(), e.To())
		}
		p.out[e.From()] = append(p.out[e.From()], e)
		p.in[e.To()] = append(p.in[e.To()], e)
		p.edges = append(p.edges, e)
	}

	return p, nil
}

// Len returns the node count.
func (p *Program) Len() int { return len(p.nodes) }

// Node returns the node with the given ID.
func (p *Program) Node(id NodeID) (Node, bool) {
	n, ok := p.nodes[id]
	return n, ok
}

// NodeIDs returns all node IDs in ascending order.
func (p *Program) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Nodes returns all nodes ordered by ID.
func (p *Program) Nodes() []Node {
	ids := p.NodeIDs()
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		nodes[i] = p.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges.
func (p *Program) Edges() []Edge {
	edges := make([]Edge, len(p.edges))
	copy(edges, p.edges)
	return edges
}

// Successors returns the targets of outgoing edges from id, ascending.
func (p *Program) Successors(id NodeID) []NodeID {
	return p.adjacent(p.out[id], func(e Edge) NodeID { return e.To() })
}

// Predecessors returns the sources of incoming edges to id, ascending.
func (p *Program) Predecessors(id NodeID) []NodeID {
	return p.adjacent(p.in[id], func(e Edge) NodeID { return e.From() })
}

// Neighborhood returns the radial frontier of id: the union of successors
// and predecessors, ascending.
func (p *Program) Neighborhood(id NodeID) []NodeID {
	seen := make(map[NodeID]struct{})
	for _, e := range p.out[id] {
		seen[e.To()] = struct{}{}
	}
	for _, e := range p.in[id] {
		seen[e.From()] = struct{}{}
	}
	ids := make([]NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OutEdges returns the outgoing edges of id.
func (p *Program) OutEdges(id NodeID) []Edge {
	edges := make([]Edge, len(p.out[id]))
	copy(edges, p.out[id])
	return edges
}

// InEdges returns the incoming edges of id.
func (p *Program) InEdges(id NodeID) []Edge {
	edges := make([]Edge, len(p.in[id]))
	copy(edges, p.in[id])
	return edges
}

// APIs returns the distinct API identifiers of call nodes, sorted.
func (p *Program) APIs() []string {
	seen := make(map[string]struct{})
	for _, n := range p.nodes {
		if n.API() != "" {
			seen[n.API()] = struct{}{}
		}
	}
	apis := make([]string, 0, len(seen))
	for api := range seen {
		apis = append(apis, api)
	}
	sort.Strings(apis)
	return apis
}

// NodesWithAPI returns the IDs of nodes carrying the given API identifier,
// ascending.
func (p *Program) NodesWithAPI(api string) []NodeID {
	var ids []NodeID
	for id, n := range p.nodes {
		if n.API() == api {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Induced returns the subgraph induced by keep: the kept nodes and every
// edge whose endpoints are both kept.
func (p *Program) Induced(keep []NodeID) (*Program, error) {
	kept := make(map[NodeID]struct{}, len(keep))
	nodes := make([]Node, 0, len(keep))
	for _, id := range keep {
		n, ok := p.nodes[id]
		if !ok {
			return nil, fmt.Errorf("induced subgraph: unknown node %d", id)
		}
		if _, dup := kept[id]; dup {
			continue
		}
		kept[id] = struct{}{}
		nodes = append(nodes, n)
	}

	var edges []Edge
	for _, e := range p.edges {
		if _, ok := kept[e.From()]; !ok {
			continue
		}
		if _, ok := kept[e.To()]; !ok {
			continue
		}
		edges = append(edges, e)
	}

	return New(nodes, edges)
}

// Connected reports whether the graph is weakly connected. The empty graph
// is not connected.
func (p *Program) Connected() bool {
	if len(p.nodes) == 0 {
		return false
	}

	var start NodeID
	for id := range p.nodes {
		start = id
		break
	}

	visited := map[NodeID]struct{}{start: {}}
	queue := []NodeID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range p.Neighborhood(id) {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return len(visited) == len(p.nodes)
}

func (p *Program) adjacent(edges []Edge, pick func(Edge) NodeID) []NodeID {
	seen := make(map[NodeID]struct{}, len(edges))
	for _, e := range edges {
		seen[pick(e)] = struct{}{}
	}
	ids := make([]NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

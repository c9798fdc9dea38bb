// Package scoring implements the embedding oracle: an OpenAI-backed graph
// embedder, an order-embedding support estimator, and a two-tier score
// cache keyed by canonical signature.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tart-proj/codescholar/domain/graph"
)

// Encode renders a dependence graph as deterministic text for embedding.
// Nodes are emitted in ID order under stable aliases, the anchor node is
// marked, and literals and spans are excluded so that the rendering carries
// exactly the structure the canonical signature considers.
func Encode(g *graph.Program, anchor graph.NodeID) string {
	if g == nil || g.Len() == 0 {
		return "graph empty"
	}

	ids := g.NodeIDs()
	alias := make(map[graph.NodeID]string, len(ids))
	for i, id := range ids {
		alias[id] = fmt.Sprintf("n%d", i)
	}

	var b strings.Builder
	for _, id := range ids {
		node, _ := g.Node(id)
		b.WriteString("node ")
		b.WriteString(alias[id])
		b.WriteByte(' ')
		if id == anchor {
			b.WriteByte('@')
		}
		b.WriteString(string(node.Kind()))
		if node.API() != "" {
			b.WriteByte(' ')
			b.WriteString(node.API())
		}
		if node.ArgPos() >= 0 {
			fmt.Fprintf(&b, " arg%d", node.ArgPos())
		}
		b.WriteByte('\n')
	}

	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From() != edges[j].From() {
			return edges[i].From() < edges[j].From()
		}
		if edges[i].To() != edges[j].To() {
			return edges[i].To() < edges[j].To()
		}
		return edges[i].Kind() < edges[j].Kind()
	})
	for _, e := range edges {
		fmt.Fprintf(&b, "edge %s -%s-> %s\n", alias[e.From()], e.Kind(), alias[e.To()])
	}

	return strings.TrimRight(b.String(), "\n")
}

// EncodeHost renders a host program graph without an anchor marker.
func EncodeHost(g *graph.Program) string {
	return Encode(g, -1)
}

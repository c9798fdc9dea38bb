package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Signature computes the canonical signature of a program graph anchored at
// the given node: a Weisfeiler-Lehman relabeling iterated Len() rounds so
// two isomorphic graphs with matching anchors produce identical digests
// regardless of node numbering. Pure function of the graph structure.
func Signature(p *Program, anchor NodeID) string {
	labels := make(map[NodeID]string, p.Len())
	for _, n := range p.Nodes() {
		l := n.label()
		if n.ID() == anchor {
			l = "@" + l
		}
		labels[n.ID()] = l
	}

	for round := 0; round < p.Len(); round++ {
		next := make(map[NodeID]string, len(labels))
		for id := range labels {
			var parts []string
			for _, e := range p.out[id] {
				parts = append(parts, fmt.Sprintf(">%s:%s", e.Kind(), labels[e.To()]))
			}
			for _, e := range p.in[id] {
				parts = append(parts, fmt.Sprintf("<%s:%s", e.Kind(), labels[e.From()]))
			}
			sort.Strings(parts)
			next[id] = compress(labels[id] + "(" + strings.Join(parts, ",") + ")")
		}
		labels = next
	}

	final := make([]string, 0, len(labels))
	for _, l := range labels {
		final = append(final, l)
	}
	sort.Strings(final)

	sum := sha256.Sum256([]byte(strings.Join(final, "|")))
	return hex.EncodeToString(sum[:])
}

// compress hashes an intermediate label so round labels stay fixed-size
// instead of growing exponentially with graph diameter.
func compress(label string) string {
	sum := sha256.Sum256([]byte(label))
	return hex.EncodeToString(sum[:16])
}

// Package corpus provides access contracts for the indexed program corpus:
// host lookup by API set and exact subgraph containment.
package corpus

import (
	"github.com/tart-proj/codescholar/domain/graph"
)

// Program is one corpus program: its source snippet and its dependence graph.
// Immutable once constructed from the index.
type Program struct {
	id      string
	dataset string
	source  string
	g       *graph.Program
}

// NewProgram creates a Program.
func NewProgram(id, dataset, source string, g *graph.Program) Program {
	return Program{id: id, dataset: dataset, source: source, g: g}
}

// ID returns the program identifier.
func (p Program) ID() string { return p.id }

// Dataset returns the dataset identifier.
func (p Program) Dataset() string { return p.dataset }

// Source returns the program source text.
func (p Program) Source() string { return p.source }

// Graph returns the dependence graph.
func (p Program) Graph() *graph.Program { return p.g }

// ContainsAPIs reports whether the program's graph contains a call node for
// every API in the set.
func (p Program) ContainsAPIs(apis []string) bool {
	if p.g == nil {
		return false
	}
	for _, api := range apis {
		if len(p.g.NodesWithAPI(api)) == 0 {
			return false
		}
	}
	return true
}

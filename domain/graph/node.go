// Package graph provides the program dependence graph model: attributed
// nodes and edges, immutable program graphs, canonical signatures, and
// exact subgraph containment.
package graph

import "fmt"

// NodeID identifies a node within a single program graph.
type NodeID int

// NodeKind classifies a program graph node. The set is closed so that
// extension enumeration can handle every kind exhaustively.
type NodeKind string

// NodeKind values.
const (
	NodeCall     NodeKind = "call"
	NodeVariable NodeKind = "variable"
	NodeLiteral  NodeKind = "literal"
	NodeControl  NodeKind = "control"
)

// Valid reports whether the kind is a member of the closed set.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeCall, NodeVariable, NodeLiteral, NodeControl:
		return true
	}
	return false
}

// String returns the kind name.
func (k NodeKind) String() string { return string(k) }

// EdgeKind classifies a dependence edge.
type EdgeKind string

// EdgeKind values.
const (
	EdgeData    EdgeKind = "data"
	EdgeControl EdgeKind = "control"
)

// Valid reports whether the kind is a member of the closed set.
func (k EdgeKind) Valid() bool {
	return k == EdgeData || k == EdgeControl
}

// String returns the kind name.
func (k EdgeKind) String() string { return string(k) }

// Node is a statement, value, or control point in a program graph.
// The API identifier is set only for call nodes that invoke a library API.
type Node struct {
	id      NodeID
	kind    NodeKind
	api     string
	argPos  int
	literal string
	span    string
}

// NewNode creates a Node.
func NewNode(id NodeID, kind NodeKind) Node {
	return Node{id: id, kind: kind, argPos: -1}
}

// WithAPI returns a copy of the node carrying an API identifier.
func (n Node) WithAPI(api string) Node {
	n.api = api
	return n
}

// WithArgPos returns a copy of the node carrying an argument position.
func (n Node) WithArgPos(pos int) Node {
	n.argPos = pos
	return n
}

// WithLiteral returns a copy of the node carrying a literal value.
func (n Node) WithLiteral(value string) Node {
	n.literal = value
	return n
}

// WithSpan returns a copy of the node carrying its source span text.
func (n Node) WithSpan(span string) Node {
	n.span = span
	return n
}

// ID returns the node identifier.
func (n Node) ID() NodeID { return n.id }

// Kind returns the node kind.
func (n Node) Kind() NodeKind { return n.kind }

// API returns the API identifier, or empty for non-API nodes.
func (n Node) API() string { return n.api }

// ArgPos returns the argument position, or -1 when not applicable.
func (n Node) ArgPos() int { return n.argPos }

// Literal returns the literal value for literal nodes.
func (n Node) Literal() string { return n.literal }

// Span returns the source span text.
func (n Node) Span() string { return n.span }

// label is the structural label used by signatures and the matcher.
// Spans and literal values are deliberately excluded: two idioms that
// differ only in identifier spelling are the same idiom.
func (n Node) label() string {
	return fmt.Sprintf("%s|%s|%d", n.kind, n.api, n.argPos)
}

// Edge is a directed dependence edge between two nodes.
type Edge struct {
	from NodeID
	to   NodeID
	kind EdgeKind
}

// NewEdge creates an Edge.
func NewEdge(from, to NodeID, kind EdgeKind) Edge {
	return Edge{from: from, to: to, kind: kind}
}

// From returns the source node ID.
func (e Edge) From() NodeID { return e.from }

// To returns the target node ID.
func (e Edge) To() NodeID { return e.to }

// Kind returns the edge kind.
func (e Edge) Kind() EdgeKind { return e.kind }

// Package dataset loads corpus datasets from manifest files and provides an
// in-memory corpus store for tooling and tests.
package dataset

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
)

// manifest is the YAML shape of a dataset file.
type manifest struct {
	Dataset  string            `yaml:"dataset"`
	Programs []manifestProgram `yaml:"programs"`
}

type manifestProgram struct {
	ID     string        `yaml:"id"`
	Source string        `yaml:"source"`
	Graph  manifestGraph `yaml:"graph"`
}

type manifestGraph struct {
	Nodes []manifestNode `yaml:"nodes"`
	Edges []manifestEdge `yaml:"edges"`
}

type manifestNode struct {
	ID      int    `yaml:"id"`
	Kind    string `yaml:"kind"`
	API     string `yaml:"api,omitempty"`
	ArgPos  *int   `yaml:"arg_pos,omitempty"`
	Literal string `yaml:"literal,omitempty"`
	Span    string `yaml:"span,omitempty"`
}

type manifestEdge struct {
	From int    `yaml:"from"`
	To   int    `yaml:"to"`
	Kind string `yaml:"kind"`
}

// ManifestLoader reads dataset manifests from the filesystem.
type ManifestLoader struct{}

// NewManifestLoader creates a ManifestLoader.
func NewManifestLoader() ManifestLoader {
	return ManifestLoader{}
}

// Load parses the manifest at path into corpus programs. Every program must
// carry a non-empty ID and a decodable dependence graph.
func (l ManifestLoader) Load(ctx context.Context, path string) ([]corpus.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc manifest
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if doc.Dataset == "" {
		return nil, fmt.Errorf("manifest %s: missing dataset name", path)
	}

	programs := make([]corpus.Program, 0, len(doc.Programs))
	seen := make(map[string]struct{}, len(doc.Programs))
	for i, mp := range doc.Programs {
		if mp.ID == "" {
			return nil, fmt.Errorf("manifest %s: program %d has no id", path, i)
		}
		if _, dup := seen[mp.ID]; dup {
			return nil, fmt.Errorf("manifest %s: duplicate program id %s", path, mp.ID)
		}
		seen[mp.ID] = struct{}{}

		g, err := buildGraph(mp.Graph)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: program %s: %w", path, mp.ID, err)
		}
		programs = append(programs, corpus.NewProgram(mp.ID, doc.Dataset, mp.Source, g))
	}
	return programs, nil
}

func buildGraph(mg manifestGraph) (*graph.Program, error) {
	nodes := make([]graph.Node, 0, len(mg.Nodes))
	for _, mn := range mg.Nodes {
		node := graph.NewNode(graph.NodeID(mn.ID), graph.NodeKind(mn.Kind))
		if mn.API != "" {
			node = node.WithAPI(mn.API)
		}
		if mn.ArgPos != nil {
			node = node.WithArgPos(*mn.ArgPos)
		}
		if mn.Literal != "" {
			node = node.WithLiteral(mn.Literal)
		}
		if mn.Span != "" {
			node = node.WithSpan(mn.Span)
		}
		nodes = append(nodes, node)
	}

	edges := make([]graph.Edge, 0, len(mg.Edges))
	for _, me := range mg.Edges {
		edges = append(edges, graph.NewEdge(graph.NodeID(me.From), graph.NodeID(me.To), graph.EdgeKind(me.Kind)))
	}

	return graph.New(nodes, edges)
}

package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/task"
)

// graphNodeJSON is the wire form of one graph node.
type graphNodeJSON struct {
	ID      int    `json:"id"`
	Kind    string `json:"kind"`
	API     string `json:"api,omitempty"`
	ArgPos  int    `json:"arg_pos"`
	Literal string `json:"literal,omitempty"`
	Span    string `json:"span,omitempty"`
}

// graphEdgeJSON is the wire form of one dependence edge.
type graphEdgeJSON struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Kind string `json:"kind"`
}

type graphJSON struct {
	Nodes []graphNodeJSON `json:"nodes"`
	Edges []graphEdgeJSON `json:"edges"`
}

// encodeGraph serializes a program graph to JSON.
func encodeGraph(g *graph.Program) (json.RawMessage, error) {
	if g == nil {
		return nil, nil
	}

	doc := graphJSON{
		Nodes: make([]graphNodeJSON, 0, g.Len()),
		Edges: make([]graphEdgeJSON, 0, len(g.Edges())),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, graphNodeJSON{
			ID:      int(n.ID()),
			Kind:    n.Kind().String(),
			API:     n.API(),
			ArgPos:  n.ArgPos(),
			Literal: n.Literal(),
			Span:    n.Span(),
		})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, graphEdgeJSON{
			From: int(e.From()),
			To:   int(e.To()),
			Kind: e.Kind().String(),
		})
	}
	return json.Marshal(doc)
}

// decodeGraph deserializes a program graph from JSON.
func decodeGraph(raw json.RawMessage) (*graph.Program, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var doc graphJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}

	nodes := make([]graph.Node, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		node := graph.NewNode(graph.NodeID(n.ID), graph.NodeKind(n.Kind))
		if n.API != "" {
			node = node.WithAPI(n.API)
		}
		node = node.WithArgPos(n.ArgPos)
		if n.Literal != "" {
			node = node.WithLiteral(n.Literal)
		}
		if n.Span != "" {
			node = node.WithSpan(n.Span)
		}
		nodes = append(nodes, node)
	}

	edges := make([]graph.Edge, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		edges = append(edges, graph.NewEdge(graph.NodeID(e.From), graph.NodeID(e.To), graph.EdgeKind(e.Kind)))
	}

	g, err := graph.New(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

func encodeStrings(values []string) (json.RawMessage, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func decodeStrings(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// ProgramMapper maps between domain Program and persistence ProgramModel.
type ProgramMapper struct{}

// ToDomain converts a ProgramModel to a corpus Program.
func (m ProgramMapper) ToDomain(e ProgramModel) (corpus.Program, error) {
	g, err := decodeGraph(e.Graph)
	if err != nil {
		return corpus.Program{}, fmt.Errorf("program %s: %w", e.ID, err)
	}
	return corpus.NewProgram(e.ID, e.Dataset, e.Source, g), nil
}

// ToModel converts a corpus Program to a ProgramModel.
func (m ProgramMapper) ToModel(p corpus.Program) (ProgramModel, error) {
	rawGraph, err := encodeGraph(p.Graph())
	if err != nil {
		return ProgramModel{}, fmt.Errorf("program %s: %w", p.ID(), err)
	}
	var apis []string
	if p.Graph() != nil {
		apis = p.Graph().APIs()
	}
	rawAPIs, err := encodeStrings(apis)
	if err != nil {
		return ProgramModel{}, fmt.Errorf("program %s: %w", p.ID(), err)
	}
	return ProgramModel{
		ID:      p.ID(),
		Dataset: p.Dataset(),
		Source:  p.Source(),
		Graph:   rawGraph,
		APIList: rawAPIs,
	}, nil
}

// IdiomMapper maps between domain Idiom and persistence IdiomModel.
type IdiomMapper struct{}

// ToDomain converts an IdiomModel to a domain Idiom.
func (m IdiomMapper) ToDomain(e IdiomModel) (idiom.Idiom, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return idiom.Idiom{}, fmt.Errorf("idiom %s: %w", e.ID, err)
	}
	runID, err := uuid.Parse(e.RunID)
	if err != nil {
		return idiom.Idiom{}, fmt.Errorf("idiom %s: %w", e.ID, err)
	}
	apis, err := decodeStrings(e.APIList)
	if err != nil {
		return idiom.Idiom{}, fmt.Errorf("idiom %s: %w", e.ID, err)
	}
	witnesses, err := decodeStrings(e.Witnesses)
	if err != nil {
		return idiom.Idiom{}, fmt.Errorf("idiom %s: %w", e.ID, err)
	}
	g, err := decodeGraph(e.Graph)
	if err != nil {
		return idiom.Idiom{}, fmt.Errorf("idiom %s: %w", e.ID, err)
	}
	return idiom.RestoreIdiom(
		id, runID,
		e.Dataset,
		apis,
		e.Size, e.Support, e.Rank,
		e.Signature,
		g,
		witnesses,
		e.Source,
		e.CreatedAt,
	), nil
}

// ToModel converts a domain Idiom to an IdiomModel.
func (m IdiomMapper) ToModel(i idiom.Idiom) (IdiomModel, error) {
	rawGraph, err := encodeGraph(i.Graph())
	if err != nil {
		return IdiomModel{}, fmt.Errorf("idiom %s: %w", i.ID(), err)
	}
	rawAPIs, err := encodeStrings(i.APIs())
	if err != nil {
		return IdiomModel{}, fmt.Errorf("idiom %s: %w", i.ID(), err)
	}
	rawWitnesses, err := encodeStrings(i.Witnesses())
	if err != nil {
		return IdiomModel{}, fmt.Errorf("idiom %s: %w", i.ID(), err)
	}
	return IdiomModel{
		ID:        i.ID().String(),
		RunID:     i.RunID().String(),
		Dataset:   i.Dataset(),
		APIList:   rawAPIs,
		Size:      i.Size(),
		Support:   i.Support(),
		Rank:      i.Rank(),
		Signature: i.Signature(),
		Graph:     rawGraph,
		Witnesses: rawWitnesses,
		Source:    i.Source(),
		CreatedAt: i.CreatedAt(),
	}, nil
}

// TaskMapper maps between domain Task and persistence TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (m TaskMapper) ToDomain(e TaskModel) task.Task {
	var payload map[string]any
	if len(e.Payload) > 0 {
		// Corrupt payloads degrade to empty rather than blocking the queue.
		_ = json.Unmarshal(e.Payload, &payload)
	}
	return task.NewTaskWithID(
		e.ID,
		e.DedupKey,
		task.Operation(e.Type),
		e.Priority,
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Task to a TaskModel.
func (m TaskMapper) ToModel(t task.Task) TaskModel {
	payload, err := t.PayloadJSON()
	if err != nil {
		payload = []byte("{}")
	}
	return TaskModel{
		ID:       t.ID(),
		DedupKey: t.DedupKey(),
		Type:     t.Operation().String(),
		Payload:  payload,
		Priority: t.Priority(),
	}
}

// TaskStatusMapper maps between domain Status and persistence TaskStatusModel.
type TaskStatusMapper struct{}

// ToDomain converts a TaskStatusModel to a domain Status.
func (m TaskStatusMapper) ToDomain(e TaskStatusModel) task.Status {
	var trackableID int64
	if e.TrackableID != nil {
		trackableID = *e.TrackableID
	}
	var trackableType task.TrackableType
	if e.TrackableType != nil {
		trackableType = task.TrackableType(*e.TrackableType)
	}
	return task.NewStatusFull(
		e.ID,
		task.ReportingState(e.State),
		task.Operation(e.Operation),
		e.Message,
		e.CreatedAt,
		e.UpdatedAt,
		e.Total,
		e.Current,
		e.Error,
		nil,
		trackableID,
		trackableType,
	)
}

// ToModel converts a domain Status to a TaskStatusModel.
func (m TaskStatusMapper) ToModel(s task.Status) TaskStatusModel {
	var parentID *string
	if s.Parent() != nil {
		id := s.Parent().ID()
		parentID = &id
	}
	var trackableID *int64
	if s.TrackableID() != 0 {
		id := s.TrackableID()
		trackableID = &id
	}
	var trackableType *string
	if s.TrackableType() != "" {
		tt := string(s.TrackableType())
		trackableType = &tt
	}
	return TaskStatusModel{
		ID:            s.ID(),
		State:         string(s.State()),
		Operation:     s.Operation().String(),
		Message:       s.Message(),
		Total:         s.Total(),
		Current:       s.Current(),
		Error:         s.Error(),
		ParentID:      parentID,
		TrackableID:   trackableID,
		TrackableType: trackableType,
		CreatedAt:     s.CreatedAt(),
		UpdatedAt:     s.UpdatedAt(),
	}
}

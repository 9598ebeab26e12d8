package graph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptDocument marks a persisted graph document that cannot be
// decoded or fails validation. Callers must treat this as a hard failure:
// a corrupted graph cannot be safely merged or trusted.
var ErrCorruptDocument = errors.New("corrupt graph document")

// ToJSON flattens the graph into its serialized form. Slices are always
// non-nil so an empty graph marshals as {"nodes":[],"edges":[]}.
func (g *CodeGraph) ToJSON() *Document {
	doc := &Document{
		Nodes: make([]Node, 0, len(g.order)),
		Edges: make([]Edge, 0, len(g.edges)),
	}
	for _, id := range g.order {
		doc.Nodes = append(doc.Nodes, *g.nodes[id])
	}
	doc.Edges = append(doc.Edges, g.edges...)
	return doc
}

// Marshal encodes the graph as an indented JSON document.
func (g *CodeGraph) Marshal() ([]byte, error) {
	return json.MarshalIndent(g.ToJSON(), "", "  ")
}

// FromDocument rebuilds a graph from its serialized form: node identity,
// insertion order, method nodes, and per-edge type and confidence all
// survive the round trip. The rebuilt graph has no retained file records,
// so AnalyzeCalls on it is a no-op; call analysis belongs to the indexing
// run that produced the document.
func FromDocument(doc *Document) (*CodeGraph, error) {
	g := NewCodeGraph()
	for i := range doc.Nodes {
		n := doc.Nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node %d has empty id", ErrCorruptDocument, i)
		}
		g.upsert(&n)
	}
	for i, e := range doc.Edges {
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("%w: edge %d has empty endpoint", ErrCorruptDocument, i)
		}
		switch e.Type {
		case EdgeImports, EdgeCalls:
		default:
			return nil, fmt.Errorf("%w: edge %d has unknown type %q", ErrCorruptDocument, i, e.Type)
		}
		g.addEdge(e)
	}
	return g, nil
}

// Unmarshal decodes a serialized graph document and rebuilds the graph.
func Unmarshal(data []byte) (*CodeGraph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return FromDocument(&doc)
}

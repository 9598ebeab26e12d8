package graph

import (
	"fmt"
	"strings"
)

// CodeGraph is the mutable declaration/import/call graph for one indexing
// run. It is owned by exactly one indexing task: all mutation happens on a
// single goroutine, so no internal locking is needed. Re-indexing a store
// builds a fresh CodeGraph and discards the old one; nodes and edges are
// never mutated in place.
type CodeGraph struct {
	nodes  map[string]*Node
	order  []string // node IDs in first-insertion order
	edges  []Edge
	byFrom map[string][]int // edge indices keyed by Edge.From

	// Per-file ingestion records retained until AnalyzeCalls runs.
	files []fileRecord
}

type fileRecord struct {
	path   string
	lines  []string
	decls  []Declaration
	direct []CallSite
}

// NewCodeGraph returns an empty graph ready for one indexing run.
func NewCodeGraph() *CodeGraph {
	return &CodeGraph{
		nodes:  make(map[string]*Node),
		byFrom: make(map[string][]int),
	}
}

// NodeID builds the identity of a top-level declaration.
func NodeID(file, name string) string {
	return file + ":" + name
}

// MethodID builds the identity of a class or interface member.
func MethodID(file, container, method string) string {
	return file + ":" + container + "." + method
}

// AddDeclarations ingests one file's declarations as nodes. A class or
// interface declaration always yields one node for the container plus one
// node per listed method. IDs are deterministic in (file, name), so
// ingesting identical content reproduces identical IDs; re-declaring the
// same (file, name) pair overwrites the prior node. The file's source is
// retained (split into lines) so AnalyzeCalls can slice declaration bodies
// later.
func (g *CodeGraph) AddDeclarations(file, source string, decls []Declaration) {
	for _, d := range decls {
		if d.Name == "" {
			continue
		}
		g.upsert(&Node{
			ID:        NodeID(file, d.Name),
			Type:      d.Type,
			Name:      d.Name,
			File:      file,
			StartLine: d.StartLine,
			EndLine:   d.EndLine,
			Signature: d.Signature,
		})
		for _, m := range d.Methods {
			if m.Name == "" {
				continue
			}
			g.upsert(&Node{
				ID:        MethodID(file, d.Name, m.Name),
				Type:      NodeMethod,
				Name:      m.Name,
				File:      file,
				StartLine: m.StartLine,
				EndLine:   m.EndLine,
				Signature: m.Signature,
			})
		}
	}
	g.files = append(g.files, fileRecord{
		path:  file,
		lines: strings.Split(source, "\n"),
		decls: decls,
	})
}

// AddCallSites records extractor-reported call relationships for a file.
// They are resolved together with the lexical scan when AnalyzeCalls runs,
// so callee declarations from later files can still match.
func (g *CodeGraph) AddCallSites(file string, sites []CallSite) {
	if len(sites) == 0 {
		return
	}
	for i := len(g.files) - 1; i >= 0; i-- {
		if g.files[i].path == file {
			g.files[i].direct = append(g.files[i].direct, sites...)
			return
		}
	}
	g.files = append(g.files, fileRecord{path: file, direct: sites})
}

// AddImport records one imports edge per imported name, resolving the raw
// specifier against the importing file. Side-effect imports (no specifiers)
// produce no edges. Import edges are syntactically certain.
func (g *CodeGraph) AddImport(fromFile, source string, specifiers []string) {
	base := ResolveImportBase(fromFile, source)
	for _, name := range specifiers {
		g.addEdge(Edge{
			From:       fromFile,
			To:         base + ":" + name,
			Type:       EdgeImports,
			Confidence: ConfidenceResolved,
		})
	}
}

// GetNode returns the node with the given ID, if present.
func (g *CodeGraph) GetNode(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// GetAllNodes returns every node in first-insertion order.
func (g *CodeGraph) GetAllNodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// GetEdges returns the outgoing edges for a node ID or file-scoped ID.
func (g *CodeGraph) GetEdges(fromID string) []Edge {
	idx := g.byFrom[fromID]
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.edges[i])
	}
	return out
}

// GetIncomingEdges returns every edge in the graph whose target is toID.
func (g *CodeGraph) GetIncomingEdges(toID string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To == toID {
			out = append(out, e)
		}
	}
	return out
}

// GetCalledByCount counts incoming calls edges only; imports edges never
// contribute, so import-heavy files do not inflate call-based ranking.
func (g *CodeGraph) GetCalledByCount(id string) int {
	n := 0
	for _, e := range g.edges {
		if e.Type == EdgeCalls && e.To == id {
			n++
		}
	}
	return n
}

// GetCallsCount counts outgoing calls edges from a node.
func (g *CodeGraph) GetCallsCount(id string) int {
	n := 0
	for _, i := range g.byFrom[id] {
		if g.edges[i].Type == EdgeCalls {
			n++
		}
	}
	return n
}

// Stats returns summary counts for the graph. Files counts the distinct
// files that contributed nodes, so it survives serialization.
func (g *CodeGraph) Stats() Stats {
	files := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		files[n.File] = true
	}
	s := Stats{Files: len(files), Nodes: len(g.order)}
	for _, e := range g.edges {
		switch e.Type {
		case EdgeImports:
			s.ImportEdges++
		case EdgeCalls:
			s.CallEdges++
		}
	}
	return s
}

func (g *CodeGraph) upsert(n *Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

func (g *CodeGraph) addEdge(e Edge) {
	g.byFrom[e.From] = append(g.byFrom[e.From], len(g.edges))
	g.edges = append(g.edges, e)
}

// String implements fmt.Stringer for debug output.
func (g *CodeGraph) String() string {
	s := g.Stats()
	return fmt.Sprintf("CodeGraph(files=%d nodes=%d imports=%d calls=%d)",
		s.Files, s.Nodes, s.ImportEdges, s.CallEdges)
}

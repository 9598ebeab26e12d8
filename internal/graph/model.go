package graph

// --- Enums ---

// NodeType classifies declarations in the code graph.
type NodeType string

const (
	NodeFunction  NodeType = "function"
	NodeClass     NodeType = "class"
	NodeInterface NodeType = "interface"
	NodeMethod    NodeType = "method"
	NodeTypeAlias NodeType = "type-alias"
	NodeConst     NodeType = "const"
)

// EdgeType classifies relationships between node identifiers.
type EdgeType string

const (
	EdgeImports EdgeType = "imports"
	EdgeCalls   EdgeType = "calls"
)

// Edge confidence levels. Import edges and call edges that resolve to a
// declaration in the graph are syntactically certain; call edges whose callee
// name matches nothing carry reduced confidence so ranking can discount them.
const (
	ConfidenceResolved = 1.0
	ConfidenceUnknown  = 0.5
)

// UnknownTargetPrefix is the reserved ID prefix for call edges whose callee
// could not be matched to any declaration. IDs under this prefix are never
// looked up as real nodes; they exist only as ranking/display signals.
// A source file literally named "unknown" would collide with this namespace;
// that is a known, accepted limitation.
const UnknownTargetPrefix = "unknown:"

// --- Extractor output (pre-graph records) ---

// Method is a class or interface member listed on a Declaration.
type Method struct {
	Name      string `json:"name"`
	Async     bool   `json:"async,omitempty"`
	Signature string `json:"signature,omitempty"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Declaration is a single top-level declaration produced by a language
// extractor, before the graph assigns it an identity. Line numbers are
// 1-indexed and inclusive.
type Declaration struct {
	Type      NodeType `json:"type"`
	Name      string   `json:"name"`
	Exported  bool     `json:"exported"`
	StartLine int      `json:"startLine"`
	EndLine   int      `json:"endLine"`
	Signature string   `json:"signature,omitempty"`
	Async     bool     `json:"async,omitempty"`
	Methods   []Method `json:"methods,omitempty"`
}

// Import is a single import statement produced by a language extractor.
// Specifiers is empty for side-effect imports. IsType marks type-only
// imports in languages that distinguish them.
type Import struct {
	Source     string   `json:"source"`
	Specifiers []string `json:"specifiers"`
	IsType     bool     `json:"isType,omitempty"`
}

// CallSite is a call relationship reported directly by an extractor whose
// language the graph's lexical call scan cannot read (the ZIL reader emits
// these). Caller is the bare name of the enclosing definition.
type CallSite struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// --- Graph-owned records ---

// Node is a uniquely identified declaration owned by a CodeGraph.
type Node struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Name      string   `json:"name"`
	File      string   `json:"file"`
	StartLine int      `json:"startLine"`
	EndLine   int      `json:"endLine"`
	Signature string   `json:"signature,omitempty"`
}

// Edge is a directed, typed, confidence-weighted relationship between two
// node identifiers. To may name a node that does not exist in the graph:
// unresolved imports keep the raw module specifier in the target and
// unresolved calls use the "unknown:" prefix. From is a node ID for call
// edges and the originating file path for import edges.
type Edge struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Type       EdgeType `json:"type"`
	Confidence float64  `json:"confidence"`
}

// Document is the flat serialized form of a CodeGraph.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Stats summarizes a graph for status surfaces.
type Stats struct {
	Files       int `json:"files"`
	Nodes       int `json:"nodes"`
	ImportEdges int `json:"importEdges"`
	CallEdges   int `json:"callEdges"`
}

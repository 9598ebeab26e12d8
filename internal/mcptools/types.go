package mcptools

import (
	"codegraph/internal/graph"
	"codegraph/internal/store"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// IndexStoreInput is the input for the index_store MCP tool.
type IndexStoreInput struct {
	Name     string `json:"name" jsonschema:"store name; an existing store with this name is re-indexed"`
	RepoPath string `json:"repoPath,omitempty" jsonschema:"absolute path to the project root (required when creating a new store)"`
}

// IndexStoreOutput is the result of the index_store MCP tool.
type IndexStoreOutput struct {
	StoreID string      `json:"storeId"`
	Stats   graph.Stats `json:"stats"`
}

// ListStoresInput is the input for the list_stores MCP tool.
type ListStoresInput struct{}

// ListStoresOutput is the result of the list_stores MCP tool.
type ListStoresOutput struct {
	Stores []store.Meta `json:"stores"`
}

// GraphStatsInput is the input for the graph_stats MCP tool.
type GraphStatsInput struct {
	Store string `json:"store" jsonschema:"store id or name"`
}

// GraphStatsOutput is the result of the graph_stats MCP tool.
type GraphStatsOutput struct {
	Stats graph.Stats `json:"stats"`
}

// GetNodeInput is the input for the get_node MCP tool.
type GetNodeInput struct {
	Store  string `json:"store" jsonschema:"store id or name"`
	NodeID string `json:"nodeId" jsonschema:"node id in the form {file}:{name} or {file}:{Container}.{method}"`
}

// GetNodeOutput is the result of the get_node MCP tool.
type GetNodeOutput struct {
	Node     graph.Node `json:"node"`
	Calls    int        `json:"calls"`
	CalledBy int        `json:"calledBy"`
}

// CalledByInput is the input for the called_by MCP tool.
type CalledByInput struct {
	Store  string `json:"store" jsonschema:"store id or name"`
	NodeID string `json:"nodeId" jsonschema:"node id whose callers to list"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of callers (default: 20)"`
}

// CalledByOutput is the result of the called_by MCP tool.
type CalledByOutput struct {
	Edges []graph.Edge `json:"edges"`
	Total int          `json:"total"`
}

// SearchNodesInput is the input for the search_nodes MCP tool.
type SearchNodesInput struct {
	Store string `json:"store" jsonschema:"store id or name"`
	Query string `json:"query" jsonschema:"substring match against node names"`
	Type  string `json:"type,omitempty" jsonschema:"filter by node type: function, class, interface, method, type-alias, const"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// SearchNodesOutput is the result of the search_nodes MCP tool.
type SearchNodesOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Total int          `json:"total"`
}

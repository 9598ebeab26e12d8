package mcptools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codegraph/internal/graph"
	"codegraph/internal/index"
	"codegraph/internal/store"
)

// Service holds the store manager and indexer used by MCP tool handlers.
type Service struct {
	stores  *store.Manager
	indexer *index.Indexer
}

func NewService(stores *store.Manager, indexer *index.Indexer) *Service {
	return &Service{stores: stores, indexer: indexer}
}

// resolveStore accepts either a store id or a store name.
func (s *Service) resolveStore(ref string) (*store.Meta, error) {
	meta, err := s.stores.Get(ref)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, store.ErrStoreNotFound) {
		return nil, err
	}
	return s.stores.GetByName(ref)
}

func (s *Service) loadGraph(ref string) (*graph.CodeGraph, error) {
	meta, err := s.resolveStore(ref)
	if err != nil {
		return nil, err
	}
	return s.stores.LoadGraph(meta.ID)
}

// IndexStore creates a store if needed and rebuilds its graph.
func (s *Service) IndexStore(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexStoreInput,
) (*mcp.CallToolResult, IndexStoreOutput, error) {
	if input.Name == "" {
		return nil, IndexStoreOutput{}, fmt.Errorf("name is required")
	}

	meta, err := s.stores.GetByName(input.Name)
	switch {
	case errors.Is(err, store.ErrStoreNotFound):
		if input.RepoPath == "" {
			return nil, IndexStoreOutput{}, fmt.Errorf("repoPath is required for a new store")
		}
		info, statErr := os.Stat(input.RepoPath)
		if statErr != nil {
			return nil, IndexStoreOutput{}, fmt.Errorf("cannot access repoPath: %w", statErr)
		}
		if !info.IsDir() {
			return nil, IndexStoreOutput{}, fmt.Errorf("repoPath is not a directory: %s", input.RepoPath)
		}
		meta, err = s.stores.Create(input.Name, input.RepoPath)
		if err != nil {
			return nil, IndexStoreOutput{}, err
		}
	case err != nil:
		return nil, IndexStoreOutput{}, err
	}

	g, err := s.indexer.IndexStore(ctx, meta.ID)
	if err != nil {
		return nil, IndexStoreOutput{}, err
	}
	return nil, IndexStoreOutput{StoreID: meta.ID, Stats: g.Stats()}, nil
}

// ListStores returns every store the manager knows about.
func (s *Service) ListStores(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListStoresInput,
) (*mcp.CallToolResult, ListStoresOutput, error) {
	metas, err := s.stores.List()
	if err != nil {
		return nil, ListStoresOutput{}, err
	}
	if metas == nil {
		metas = []store.Meta{}
	}
	return nil, ListStoresOutput{Stores: metas}, nil
}

// GraphStats summarizes a store's graph.
func (s *Service) GraphStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GraphStatsInput,
) (*mcp.CallToolResult, GraphStatsOutput, error) {
	if input.Store == "" {
		return nil, GraphStatsOutput{}, fmt.Errorf("store is required")
	}
	g, err := s.loadGraph(input.Store)
	if err != nil {
		return nil, GraphStatsOutput{}, err
	}
	return nil, GraphStatsOutput{Stats: g.Stats()}, nil
}

// GetNode looks up one node with its degree counts.
func (s *Service) GetNode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetNodeInput,
) (*mcp.CallToolResult, GetNodeOutput, error) {
	if input.Store == "" || input.NodeID == "" {
		return nil, GetNodeOutput{}, fmt.Errorf("store and nodeId are required")
	}
	g, err := s.loadGraph(input.Store)
	if err != nil {
		return nil, GetNodeOutput{}, err
	}
	node, ok := g.GetNode(input.NodeID)
	if !ok {
		return nil, GetNodeOutput{}, fmt.Errorf("node not found: %s", input.NodeID)
	}
	return nil, GetNodeOutput{
		Node:     *node,
		Calls:    g.GetCallsCount(input.NodeID),
		CalledBy: g.GetCalledByCount(input.NodeID),
	}, nil
}

// CalledBy lists incoming call edges for a node.
func (s *Service) CalledBy(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CalledByInput,
) (*mcp.CallToolResult, CalledByOutput, error) {
	if input.Store == "" || input.NodeID == "" {
		return nil, CalledByOutput{}, fmt.Errorf("store and nodeId are required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	g, err := s.loadGraph(input.Store)
	if err != nil {
		return nil, CalledByOutput{}, err
	}

	edges := []graph.Edge{}
	for _, e := range g.GetIncomingEdges(input.NodeID) {
		if e.Type == graph.EdgeCalls {
			edges = append(edges, e)
		}
	}
	total := len(edges)
	if len(edges) > limit {
		edges = edges[:limit]
	}
	return nil, CalledByOutput{Edges: edges, Total: total}, nil
}

// SearchNodes matches node names by substring.
func (s *Service) SearchNodes(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchNodesInput,
) (*mcp.CallToolResult, SearchNodesOutput, error) {
	if input.Store == "" || input.Query == "" {
		return nil, SearchNodesOutput{}, fmt.Errorf("store and query are required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	g, err := s.loadGraph(input.Store)
	if err != nil {
		return nil, SearchNodesOutput{}, err
	}

	query := strings.ToLower(input.Query)
	matches := []graph.Node{}
	total := 0
	for _, node := range g.GetAllNodes() {
		if input.Type != "" && string(node.Type) != input.Type {
			continue
		}
		if !strings.Contains(strings.ToLower(node.Name), query) {
			continue
		}
		total++
		if len(matches) < limit {
			matches = append(matches, *node)
		}
	}
	return nil, SearchNodesOutput{Nodes: matches, Total: total}, nil
}

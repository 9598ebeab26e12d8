package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server with all graph inspection tools
// registered. The version comes from the binary that embeds the server.
func NewServer(svc *Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_store",
		Description: "Create or re-index a named store. Walks the project tree, extracts declarations and imports per language, and resolves call references across the whole store.",
	}, svc.IndexStore)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_stores",
		Description: "List all stores with their roots and index freshness.",
	}, svc.ListStores)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Return node, file, and edge counts for a store's graph.",
	}, svc.GraphStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_node",
		Description: "Look up a single node by id, with its outgoing call count and incoming caller count.",
	}, svc.GetNode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "called_by",
		Description: "List the call edges pointing at a node, i.e. who calls it. Import edges are not counted.",
	}, svc.CalledBy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Search node names by substring, optionally filtered by node type.",
	}, svc.SearchNodes)

	return server
}

// RunHTTP starts an HTTP server exposing the MCP tools until ctx ends.
func RunHTTP(ctx context.Context, svc *Service, addr, version string) error {
	server := NewServer(svc, version)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//go:build e2e

package e2e

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/export"
	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/index"
	"codegraph/internal/mcptools"
	"codegraph/internal/store"
)

// fixtureRoot points at the polyglot fixture project checked into testdata.
func fixtureRoot(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "..", "testdata", "fixtures", "polyglot"))
	require.NoError(t, err)
	return abs
}

// indexFixture builds a store over the fixture project and indexes it,
// returning the manager, the store id, and the resulting graph.
func indexFixture(t *testing.T) (*store.Manager, string, *graph.CodeGraph) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stores, err := store.NewManager(t.TempDir(), logger)
	require.NoError(t, err)

	meta, err := stores.Create("polyglot", fixtureRoot(t))
	require.NoError(t, err)

	registry := extract.DefaultRegistry(nil)
	walker := index.NewWalker(nil, 1<<20, logger)
	indexer := index.New(registry, walker, stores, logger)

	g, err := indexer.IndexStore(context.Background(), meta.ID)
	require.NoError(t, err)
	return stores, meta.ID, g
}

// ---------------------------------------------------------------------------
// Full pipeline
// ---------------------------------------------------------------------------

func TestPipeline_PolyglotProject(t *testing.T) {
	stores, storeID, g := indexFixture(t)

	s := g.Stats()
	assert.Equal(t, 5, s.Files, "tasks.py has no extractor and dist/ is gitignored")
	assert.Equal(t, 12, s.Nodes)
	assert.Equal(t, 2, s.ImportEdges)
	assert.Equal(t, 6, s.CallEdges)

	for _, id := range []string{
		"/src/app.ts:main",
		"/src/app.ts:buildTitle",
		"/src/render.ts:renderPage",
		"/cache.go:Cache",
		"/cache.go:Cache.Get",
		"/cache.go:NewCache",
		"/engine.rs:Engine.tick",
		"/engine.rs:run",
		"/world.zil:GO",
		"/world.zil:LOOK",
	} {
		_, ok := g.GetNode(id)
		assert.True(t, ok, "missing node %s", id)
	}

	// Import edges hang off the importing file path.
	fileEdges := g.GetEdges("/src/app.ts")
	require.Len(t, fileEdges, 2)
	targets := []string{fileEdges[0].To, fileEdges[1].To}
	assert.Contains(t, targets, "/src/render:renderPage")
	assert.Contains(t, targets, "react:React")

	// Cross-file call resolution across languages.
	assertCall(t, g, "/src/app.ts:main", "/src/render.ts:renderPage", graph.ConfidenceResolved)
	assertCall(t, g, "/engine.rs:run", "/engine.rs:Engine.tick", graph.ConfidenceResolved)
	assertCall(t, g, "/world.zil:GO", "/world.zil:LOOK", graph.ConfidenceResolved)
	assertCall(t, g, "/src/render.ts:renderPage", "unknown:log", graph.ConfidenceUnknown)

	// The graph round-trips through the store.
	reloaded, err := stores.LoadGraph(storeID)
	require.NoError(t, err)
	assert.Equal(t, s, reloaded.Stats())
}

func assertCall(t *testing.T, g *graph.CodeGraph, from, to string, confidence float64) {
	t.Helper()
	for _, e := range g.GetEdges(from) {
		if e.Type == graph.EdgeCalls && e.To == to {
			assert.Equal(t, confidence, e.Confidence, "%s -> %s", from, to)
			return
		}
	}
	t.Errorf("no call edge %s -> %s", from, to)
}

// ---------------------------------------------------------------------------
// MCP tool surface over the pipeline
// ---------------------------------------------------------------------------

func TestPipeline_MCPTools(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stores, err := store.NewManager(t.TempDir(), logger)
	require.NoError(t, err)

	registry := extract.DefaultRegistry(nil)
	walker := index.NewWalker(nil, 1<<20, logger)
	indexer := index.New(registry, walker, stores, logger)
	svc := mcptools.NewService(stores, indexer)

	ctx := context.Background()
	_, indexed, err := svc.IndexStore(ctx, nil, mcptools.IndexStoreInput{
		Name:     "polyglot",
		RepoPath: fixtureRoot(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, indexed.Stats.Nodes)

	_, found, err := svc.SearchNodes(ctx, nil, mcptools.SearchNodesInput{
		Store: "polyglot",
		Query: "cache",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, found.Total, "Cache and NewCache")

	_, callers, err := svc.CalledBy(ctx, nil, mcptools.CalledByInput{
		Store:  indexed.StoreID,
		NodeID: "/src/render.ts:renderPage",
	})
	require.NoError(t, err)
	require.Len(t, callers.Edges, 1)
	assert.Equal(t, "/src/app.ts:main", callers.Edges[0].From)
}

// ---------------------------------------------------------------------------
// Diagram export over the pipeline
// ---------------------------------------------------------------------------

func TestPipeline_MermaidExport(t *testing.T) {
	_, _, g := indexFixture(t)

	out := export.GenerateMermaid(g)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "subgraph")
	assert.Contains(t, out, "main (function)")
	assert.Contains(t, out, "calls 1.0")
	assert.Contains(t, out, "calls 0.5")
	assert.Contains(t, out, `(["react:React"])`)
}

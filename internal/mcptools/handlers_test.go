package mcptools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/index"
	"codegraph/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores, err := store.NewManager(t.TempDir(), logger)
	require.NoError(t, err)
	indexer := index.New(extract.DefaultRegistry(nil), index.NewWalker(nil, 0, logger), stores, logger)
	return NewService(stores, indexer)
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := `import { log } from './log';

export function main() {
  log("start");
  helper();
}

function helper() {}
`
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.ts"), []byte(src), 0o644))
	return root
}

func indexSample(t *testing.T, svc *Service) string {
	t.Helper()
	_, out, err := svc.IndexStore(context.Background(), nil, IndexStoreInput{Name: "proj", RepoPath: sampleProject(t)})
	require.NoError(t, err)
	return out.StoreID
}

// ---------------------------------------------------------------------------
// TestService_IndexStore
// ---------------------------------------------------------------------------

func TestService_IndexStore_CreatesAndIndexes(t *testing.T) {
	svc := testService(t)

	_, out, err := svc.IndexStore(context.Background(), nil, IndexStoreInput{Name: "proj", RepoPath: sampleProject(t)})
	require.NoError(t, err)
	assert.NotEmpty(t, out.StoreID)
	assert.Equal(t, 2, out.Stats.Nodes)
	assert.Equal(t, 1, out.Stats.Files)
}

func TestService_IndexStore_ReindexByName(t *testing.T) {
	svc := testService(t)
	id := indexSample(t, svc)

	// Second run by name alone; no repoPath needed.
	_, out, err := svc.IndexStore(context.Background(), nil, IndexStoreInput{Name: "proj"})
	require.NoError(t, err)
	assert.Equal(t, id, out.StoreID)
}

func TestService_IndexStore_Validation(t *testing.T) {
	svc := testService(t)

	_, _, err := svc.IndexStore(context.Background(), nil, IndexStoreInput{})
	require.Error(t, err)

	_, _, err = svc.IndexStore(context.Background(), nil, IndexStoreInput{Name: "x"})
	require.Error(t, err, "new store needs a repoPath")

	_, _, err = svc.IndexStore(context.Background(), nil, IndexStoreInput{Name: "x", RepoPath: "/no/such/dir"})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// TestService query tools
// ---------------------------------------------------------------------------

func TestService_ListStores(t *testing.T) {
	svc := testService(t)

	_, out, err := svc.ListStores(context.Background(), nil, ListStoresInput{})
	require.NoError(t, err)
	assert.Empty(t, out.Stores)

	indexSample(t, svc)

	_, out, err = svc.ListStores(context.Background(), nil, ListStoresInput{})
	require.NoError(t, err)
	require.Len(t, out.Stores, 1)
	assert.Equal(t, "proj", out.Stores[0].Name)
}

func TestService_GraphStats(t *testing.T) {
	svc := testService(t)
	id := indexSample(t, svc)

	// Both the id and the name resolve.
	_, byID, err := svc.GraphStats(context.Background(), nil, GraphStatsInput{Store: id})
	require.NoError(t, err)
	_, byName, err := svc.GraphStats(context.Background(), nil, GraphStatsInput{Store: "proj"})
	require.NoError(t, err)
	assert.Equal(t, byID.Stats, byName.Stats)
	assert.Equal(t, 2, byID.Stats.Nodes)

	_, _, err = svc.GraphStats(context.Background(), nil, GraphStatsInput{Store: "ghost"})
	require.ErrorIs(t, err, store.ErrStoreNotFound)
}

func TestService_GetNode(t *testing.T) {
	svc := testService(t)
	indexSample(t, svc)

	_, out, err := svc.GetNode(context.Background(), nil, GetNodeInput{Store: "proj", NodeID: "/src/app.ts:helper"})
	require.NoError(t, err)
	assert.Equal(t, graph.NodeFunction, out.Node.Type)
	assert.Equal(t, 1, out.CalledBy)
	assert.Equal(t, 0, out.Calls)

	_, _, err = svc.GetNode(context.Background(), nil, GetNodeInput{Store: "proj", NodeID: "/src/app.ts:nope"})
	require.Error(t, err)
}

func TestService_CalledBy(t *testing.T) {
	svc := testService(t)
	indexSample(t, svc)

	_, out, err := svc.CalledBy(context.Background(), nil, CalledByInput{Store: "proj", NodeID: "/src/app.ts:helper"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "/src/app.ts:main", out.Edges[0].From)

	// Import edges do not count as callers.
	_, out, err = svc.CalledBy(context.Background(), nil, CalledByInput{Store: "proj", NodeID: "/src/log:log"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
}

func TestService_SearchNodes(t *testing.T) {
	svc := testService(t)
	indexSample(t, svc)

	_, out, err := svc.SearchNodes(context.Background(), nil, SearchNodesInput{Store: "proj", Query: "help"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "/src/app.ts:helper", out.Nodes[0].ID)

	_, out, err = svc.SearchNodes(context.Background(), nil, SearchNodesInput{Store: "proj", Query: "a", Type: "class"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
}

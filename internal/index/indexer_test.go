package index

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testIndexer(t *testing.T) (*Indexer, *store.Manager) {
	t.Helper()
	stores, err := store.NewManager(t.TempDir(), testLogger())
	require.NoError(t, err)
	ix := New(extract.DefaultRegistry(nil), NewWalker(nil, 0, testLogger()), stores, testLogger())
	return ix, stores
}

// ---------------------------------------------------------------------------
// TestIndexer_IndexStore
// ---------------------------------------------------------------------------

func TestIndexer_IndexStore_TypeScriptProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/utils.ts", `export function format(s: string): string {
  return s.trim();
}
`)
	writeFile(t, root, "src/app.ts", `import { format } from './utils';

export function main() {
  format("x");
  missing();
}
`)

	ix, stores := testIndexer(t)
	meta, err := stores.Create("web", root)
	require.NoError(t, err)

	g, err := ix.IndexStore(context.Background(), meta.ID)
	require.NoError(t, err)

	_, ok := g.GetNode("/src/app.ts:main")
	require.True(t, ok)
	_, ok = g.GetNode("/src/utils.ts:format")
	require.True(t, ok)

	// The import edge resolves ./utils against the importing file's dir.
	imports := g.GetIncomingEdges("/src/utils:format")
	require.Len(t, imports, 1)
	assert.Equal(t, graph.EdgeImports, imports[0].Type)
	assert.Equal(t, "/src/app.ts", imports[0].From)
	assert.Equal(t, graph.ConfidenceResolved, imports[0].Confidence)

	// The call scan runs store-wide, so format resolves across files.
	calls := g.GetEdges("/src/app.ts:main")
	callEdges := map[string]float64{}
	for _, e := range calls {
		if e.Type == graph.EdgeCalls {
			callEdges[e.To] = e.Confidence
		}
	}
	assert.Equal(t, graph.ConfidenceResolved, callEdges["/src/utils.ts:format"])
	assert.Equal(t, graph.ConfidenceUnknown, callEdges[graph.UnknownTargetPrefix+"missing"])

	// The document is persisted and loads back identically.
	loaded, err := stores.LoadGraph(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, len(g.GetAllNodes()), len(loaded.GetAllNodes()))
}

func TestIndexer_IndexStore_MixedLanguages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/cache.go", `package cache

type Store struct{}

func (s *Store) Get(key string) string { return "" }
`)
	writeFile(t, root, "src/lib.rs", `pub fn run() {}
`)
	writeFile(t, root, "game.zil", `<ROUTINE GO () <RTRUE>>
`)
	writeFile(t, root, "README.md", "# ignored\n")

	ix, stores := testIndexer(t)
	meta, err := stores.Create("mixed", root)
	require.NoError(t, err)

	g, err := ix.IndexStore(context.Background(), meta.ID)
	require.NoError(t, err)

	_, ok := g.GetNode("/pkg/cache.go:Store")
	assert.True(t, ok)
	_, ok = g.GetNode("/pkg/cache.go:Store.Get")
	assert.True(t, ok)
	_, ok = g.GetNode("/src/lib.rs:run")
	assert.True(t, ok)
	_, ok = g.GetNode("/game.zil:GO")
	assert.True(t, ok)
	_, ok = g.GetNode("/README.md:ignored")
	assert.False(t, ok)
}

func TestIndexer_IndexStore_ZILCallSites(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.zil", `<ROUTINE MAIN () <GREET>>
<ROUTINE GREET () <TELL "hi" CR>>
`)

	ix, stores := testIndexer(t)
	meta, err := stores.Create("game", root)
	require.NoError(t, err)

	g, err := ix.IndexStore(context.Background(), meta.ID)
	require.NoError(t, err)

	edges := g.GetEdges("/main.zil:MAIN")
	require.Len(t, edges, 1)
	assert.Equal(t, "/main.zil:GREET", edges[0].To)
	assert.Equal(t, graph.ConfidenceResolved, edges[0].Confidence)
}

func TestIndexer_IndexStore_Cancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const a = 1;")

	ix, stores := testIndexer(t)
	meta, err := stores.Create("c", root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ix.IndexStore(ctx, meta.ID)
	require.ErrorIs(t, err, context.Canceled)

	// Nothing was persisted for the aborted run.
	g, err := stores.LoadGraph(meta.ID)
	require.NoError(t, err)
	assert.Empty(t, g.GetAllNodes())
}

func TestIndexer_IndexStore_UnknownStore(t *testing.T) {
	ix, _ := testIndexer(t)

	_, err := ix.IndexStore(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrStoreNotFound)
}

// ---------------------------------------------------------------------------
// TestIndexer_IndexStores
// ---------------------------------------------------------------------------

func TestIndexer_IndexStores_Concurrent(t *testing.T) {
	rootA := t.TempDir()
	writeFile(t, rootA, "a.ts", "export function a() {}")
	rootB := t.TempDir()
	writeFile(t, rootB, "b.ts", "export function b() {}")

	ix, stores := testIndexer(t)
	metaA, err := stores.Create("a", rootA)
	require.NoError(t, err)
	metaB, err := stores.Create("b", rootB)
	require.NoError(t, err)

	require.NoError(t, ix.IndexStores(context.Background(), []string{metaA.ID, metaB.ID}, 2))

	gA, err := stores.LoadGraph(metaA.ID)
	require.NoError(t, err)
	_, ok := gA.GetNode("/a.ts:a")
	assert.True(t, ok)

	gB, err := stores.LoadGraph(metaB.ID)
	require.NoError(t, err)
	_, ok = gB.GetNode("/b.ts:b")
	assert.True(t, ok)
}

func TestIndexer_IndexStores_FailureStopsRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const a = 1;")

	ix, stores := testIndexer(t)
	meta, err := stores.Create("ok", root)
	require.NoError(t, err)

	err = ix.IndexStores(context.Background(), []string{meta.ID, "missing"}, 1)
	require.ErrorIs(t, err, store.ErrStoreNotFound)
}

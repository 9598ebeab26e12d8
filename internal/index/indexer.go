package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/store"
)

const defaultParallelism = 4

// Indexer builds code graphs for stores. One store is indexed sequentially
// so a single goroutine owns its graph; separate stores fan out.
type Indexer struct {
	registry *extract.Registry
	walker   *Walker
	stores   *store.Manager
	logger   *slog.Logger
}

func New(registry *extract.Registry, walker *Walker, stores *store.Manager, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{registry: registry, walker: walker, stores: stores, logger: logger}
}

// IndexStore rebuilds a store's graph from its root directory and persists
// it. Cancellation discards the partial graph and leaves the previous
// document untouched.
func (ix *Indexer) IndexStore(ctx context.Context, storeID string) (*graph.CodeGraph, error) {
	meta, err := ix.stores.Get(storeID)
	if err != nil {
		return nil, err
	}

	g := graph.NewCodeGraph()
	files := 0
	walkErr := ix.walker.Walk(meta.Root, func(absPath, relPath string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		extractor, ok := ix.registry.ForFile(relPath)
		if !ok {
			return nil
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			ix.logger.Warn("skipping unreadable file", "path", absPath, "error", err)
			return nil
		}

		filePath := "/" + relPath
		g.AddDeclarations(filePath, string(data), extractor.Parse(ctx, data, filePath))
		if ie, ok := extractor.(extract.ImportExtractor); ok {
			for _, imp := range ie.ExtractImports(ctx, data) {
				g.AddImport(filePath, imp.Source, imp.Specifiers)
			}
		}
		if ce, ok := extractor.(extract.CallExtractor); ok {
			g.AddCallSites(filePath, ce.ExtractCalls(ctx, data))
		}
		files++
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("index store %s: %w", storeID, walkErr)
	}

	// Call resolution runs only after every file is in, so late
	// declarations still win over unknown: targets.
	g.AnalyzeCalls()

	if err := ix.stores.SaveGraph(storeID, g); err != nil {
		return nil, err
	}
	stats := g.Stats()
	ix.logger.Info("store indexed",
		"store", storeID, "name", meta.Name, "files", files,
		"nodes", stats.Nodes, "importEdges", stats.ImportEdges, "callEdges", stats.CallEdges)
	return g, nil
}

// IndexStores indexes several stores concurrently. The first failure
// cancels the rest.
func (ix *Indexer) IndexStores(ctx context.Context, storeIDs []string, parallelism int) error {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)
	for _, id := range storeIDs {
		eg.Go(func() error {
			_, err := ix.IndexStore(ctx, id)
			return err
		})
	}
	return eg.Wait()
}

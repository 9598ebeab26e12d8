// Package store persists code graphs as named stores on disk. Each store is
// a directory under the base directory holding a meta.json and the graph
// document; recently used graphs stay open in an LRU cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"codegraph/internal/graph"
)

// ErrStoreNotFound is returned when no store matches the given id or name.
var ErrStoreNotFound = errors.New("store not found")

const (
	metaFileName  = "meta.json"
	graphFileName = "graph.json"
	maxOpenGraphs = 8
)

// Meta describes one store.
type Meta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Root      string    `json:"root"`
	CreatedAt time.Time `json:"createdAt"`
	IndexedAt time.Time `json:"indexedAt,omitzero"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
}

// Manager owns the store directory tree.
type Manager struct {
	baseDir string
	logger  *slog.Logger

	mu     sync.Mutex
	graphs *lru.Cache[string, *graph.CodeGraph]
}

func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, *graph.CodeGraph](maxOpenGraphs)
	return &Manager{baseDir: baseDir, logger: logger, graphs: cache}, nil
}

// Create allocates a new store for the given project root.
func (m *Manager) Create(name, root string) (*Meta, error) {
	meta := &Meta{
		ID:        uuid.NewString(),
		Name:      name,
		Root:      root,
		CreatedAt: time.Now().UTC(),
	}
	dir := filepath.Join(m.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store %s: %w", meta.ID, err)
	}
	if err := m.writeMeta(meta); err != nil {
		return nil, err
	}
	m.logger.Info("store created", "id", meta.ID, "name", name, "root", root)
	return meta, nil
}

// Get loads a store's metadata by id.
func (m *Manager) Get(id string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(m.baseDir, id, metaFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, id)
		}
		return nil, fmt.Errorf("read store meta %s: %w", id, err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("store meta %s is corrupt: %w", id, err)
	}
	return &meta, nil
}

// GetByName finds a store by its name. Names are not enforced unique; the
// most recently created match wins.
func (m *Manager) GetByName(name string) (*Meta, error) {
	metas, err := m.List()
	if err != nil {
		return nil, err
	}
	var found *Meta
	for i := range metas {
		if metas[i].Name != name {
			continue
		}
		if found == nil || metas[i].CreatedAt.After(found.CreatedAt) {
			found = &metas[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	return found, nil
}

// List returns all stores sorted by creation time.
func (m *Manager) List() ([]Meta, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	var metas []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := m.Get(entry.Name())
		if err != nil {
			// Not a store directory or a damaged one; listing carries on.
			m.logger.Warn("skipping unreadable store", "dir", entry.Name(), "error", err)
			continue
		}
		metas = append(metas, *meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt.Before(metas[j].CreatedAt) })
	return metas, nil
}

// Delete removes a store and evicts its cached graph.
func (m *Manager) Delete(id string) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	m.mu.Lock()
	m.graphs.Remove(id)
	m.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(m.baseDir, id)); err != nil {
		return fmt.Errorf("delete store %s: %w", id, err)
	}
	m.logger.Info("store deleted", "id", id)
	return nil
}

// SaveGraph writes the graph document and refreshes the store's metadata.
func (m *Manager) SaveGraph(id string, g *graph.CodeGraph) error {
	meta, err := m.Get(id)
	if err != nil {
		return err
	}
	data, err := g.Marshal()
	if err != nil {
		return fmt.Errorf("marshal graph for store %s: %w", id, err)
	}
	if err := os.WriteFile(filepath.Join(m.baseDir, id, graphFileName), data, 0o644); err != nil {
		return fmt.Errorf("write graph for store %s: %w", id, err)
	}

	stats := g.Stats()
	meta.IndexedAt = time.Now().UTC()
	meta.Nodes = stats.Nodes
	meta.Edges = stats.ImportEdges + stats.CallEdges
	if err := m.writeMeta(meta); err != nil {
		return err
	}

	m.mu.Lock()
	m.graphs.Add(id, g)
	m.mu.Unlock()
	m.logger.Info("graph saved", "store", id, "nodes", meta.Nodes, "edges", meta.Edges)
	return nil
}

// LoadGraph reads a store's graph document. A missing document yields an
// empty graph; a corrupted one is a hard error.
func (m *Manager) LoadGraph(id string) (*graph.CodeGraph, error) {
	m.mu.Lock()
	if g, ok := m.graphs.Get(id); ok {
		m.mu.Unlock()
		return g, nil
	}
	m.mu.Unlock()

	if _, err := m.Get(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.baseDir, id, graphFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return graph.NewCodeGraph(), nil
		}
		return nil, fmt.Errorf("read graph for store %s: %w", id, err)
	}
	g, err := graph.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", id, err)
	}

	m.mu.Lock()
	m.graphs.Add(id, g)
	m.mu.Unlock()
	return g, nil
}

func (m *Manager) writeMeta(meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store meta %s: %w", meta.ID, err)
	}
	if err := os.WriteFile(filepath.Join(m.baseDir, meta.ID, metaFileName), data, 0o644); err != nil {
		return fmt.Errorf("write store meta %s: %w", meta.ID, err)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"codegraph/internal/bridge"
	"codegraph/internal/config"
	"codegraph/internal/export"
	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/index"
	"codegraph/internal/mcptools"
	"codegraph/internal/store"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Index    string
	Root     string
	List     bool
	Stats    string
	Mermaid  string
	Kuzu     string
	KuzuPath string
	ServeMCP bool
	Addr     string
	BaseDir  string
	Config   string
	Verbose  bool
	Version  bool
}

// version is set by the linker at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codegraph", flag.ContinueOnError)
	fs.StringVar(&flags.Index, "index", "", "create or re-index the named store")
	fs.StringVar(&flags.Root, "root", "", "project root for -index (required for new stores)")
	fs.BoolVar(&flags.List, "list", false, "list stores")
	fs.StringVar(&flags.Stats, "stats", "", "print graph stats for a store (id or name)")
	fs.StringVar(&flags.Mermaid, "mermaid", "", "print a Mermaid diagram for a store (id or name)")
	fs.StringVar(&flags.Kuzu, "kuzu", "", "mirror a store's graph into a KuzuDB (id or name)")
	fs.StringVar(&flags.KuzuPath, "kuzu-path", "", "KuzuDB path for -kuzu (defaults to config kuzuPath)")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "serve the graph inspection tools over MCP")
	fs.StringVar(&flags.Addr, "addr", ":8391", "listen address for -serve-mcp")
	fs.StringVar(&flags.BaseDir, "base-dir", "", "store directory (overrides config)")
	fs.StringVar(&flags.Config, "config", ".", "directory to load codegraph.yml from")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.BaseDir != "" {
		cfg.BaseDir = flags.BaseDir
	}

	stores, err := store.NewManager(cfg.BaseDir, logger)
	if err != nil {
		return err
	}

	var python *extract.PythonExtractor
	if cfg.Python.Command != "" {
		worker := bridge.NewWorker(cfg.Python.Command, cfg.Python.Args...)
		worker.SetLogger(logger)
		defer worker.Close()
		python = extract.NewPythonExtractor(worker,
			extract.WithTimeout(cfg.Python.Timeout),
			extract.WithLogger(logger))
	}

	registry := extract.DefaultRegistry(python)
	walker := index.NewWalker(cfg.ExcludeDirs, cfg.MaxFileSize, logger)
	indexer := index.New(registry, walker, stores, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case flags.Index != "":
		return runIndex(ctx, stores, indexer, flags.Index, flags.Root)
	case flags.List:
		return runList(stores)
	case flags.Stats != "":
		return runStats(stores, flags.Stats)
	case flags.Mermaid != "":
		return runMermaid(stores, flags.Mermaid)
	case flags.Kuzu != "":
		path := flags.KuzuPath
		if path == "" {
			path = cfg.KuzuPath
		}
		return runKuzuExport(stores, flags.Kuzu, path)
	case flags.ServeMCP:
		logger.Info("serving MCP", "addr", flags.Addr)
		return mcptools.RunHTTP(ctx, mcptools.NewService(stores, indexer), flags.Addr, version)
	}

	fs.Usage()
	return nil
}

func runIndex(ctx context.Context, stores *store.Manager, indexer *index.Indexer, name, root string) error {
	meta, err := stores.GetByName(name)
	if err != nil {
		if root == "" {
			return fmt.Errorf("store %q does not exist; pass -root to create it", name)
		}
		meta, err = stores.Create(name, root)
		if err != nil {
			return err
		}
	}
	g, err := indexer.IndexStore(ctx, meta.ID)
	if err != nil {
		return err
	}
	s := g.Stats()
	fmt.Printf("indexed %s: %d files, %d nodes, %d edges\n",
		name, s.Files, s.Nodes, s.ImportEdges+s.CallEdges)
	return nil
}

// loadByRef resolves a store by id first, then by name.
func loadByRef(stores *store.Manager, ref string) (*graph.CodeGraph, error) {
	meta, err := stores.Get(ref)
	if err != nil {
		meta, err = stores.GetByName(ref)
		if err != nil {
			return nil, err
		}
	}
	return stores.LoadGraph(meta.ID)
}

func runList(stores *store.Manager) error {
	metas, err := stores.List()
	if err != nil {
		return err
	}
	for _, m := range metas {
		indexed := "never"
		if !m.IndexedAt.IsZero() {
			indexed = m.IndexedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %-20s %s  (nodes=%d edges=%d indexed=%s)\n",
			m.ID, m.Name, m.Root, m.Nodes, m.Edges, indexed)
	}
	return nil
}

func runStats(stores *store.Manager, ref string) error {
	g, err := loadByRef(stores, ref)
	if err != nil {
		return err
	}
	s := g.Stats()
	fmt.Printf("files:        %d\n", s.Files)
	fmt.Printf("nodes:        %d\n", s.Nodes)
	fmt.Printf("import edges: %d\n", s.ImportEdges)
	fmt.Printf("call edges:   %d\n", s.CallEdges)
	return nil
}

func runMermaid(stores *store.Manager, ref string) error {
	g, err := loadByRef(stores, ref)
	if err != nil {
		return err
	}
	fmt.Print(export.GenerateMermaid(g))
	return nil
}

//go:build cgo

package store

import (
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"

	"codegraph/internal/graph"
)

// KuzuExporter mirrors a code graph into a KuzuDB database so it can be
// queried with Cypher. Requires CGO because the go-kuzu driver wraps the
// KuzuDB C library. Edge targets that name no node (bare module specifiers,
// unknown: callees) get placeholder Decl rows so relationship inserts never
// dangle.
type KuzuExporter struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// NewKuzuExporter opens (or creates) a file-backed KuzuDB at dbPath.
func NewKuzuExporter(dbPath string) (*KuzuExporter, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	db, err := kuzu.OpenDatabase(dbPath, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuExporter{db: db, conn: conn}, nil
}

// NewKuzuMemoryExporter opens an in-memory KuzuDB, used by tests.
func NewKuzuMemoryExporter() (*KuzuExporter, error) {
	db, err := kuzu.OpenDatabase(":memory:", kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuExporter{db: db, conn: conn}, nil
}

func (e *KuzuExporter) Close() error {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
	return nil
}

// Node tables must precede relationship tables.
var kuzuDDL = []string{
	`CREATE NODE TABLE IF NOT EXISTS Decl(
		id STRING,
		name STRING,
		type STRING,
		file STRING,
		start_line INT64,
		end_line INT64,
		placeholder BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM Decl TO Decl, confidence DOUBLE)`,
	`CREATE REL TABLE IF NOT EXISTS CALLS(FROM Decl TO Decl, confidence DOUBLE)`,
}

// Export writes the whole graph into the database.
func (e *KuzuExporter) Export(g *graph.CodeGraph) error {
	for _, stmt := range kuzuDDL {
		res, err := e.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}

	seen := make(map[string]bool)
	for _, n := range g.GetAllNodes() {
		seen[n.ID] = true
		// Parameter names avoid Cypher keywords (END, FROM, TO), which
		// the parser rejects even in parameter position.
		err := e.exec(
			`CREATE (d:Decl {id: $id, name: $name, type: $kind, file: $file,
				start_line: $sl, end_line: $el, placeholder: false})`,
			map[string]any{
				"id":   n.ID,
				"name": n.Name,
				"kind": string(n.Type),
				"file": n.File,
				"sl":   int64(n.StartLine),
				"el":   int64(n.EndLine),
			},
		)
		if err != nil {
			return err
		}
	}

	doc := g.ToJSON()
	for _, edge := range doc.Edges {
		for _, id := range []string{edge.From, edge.To} {
			if seen[id] {
				continue
			}
			seen[id] = true
			err := e.exec(
				`CREATE (d:Decl {id: $id, name: $id, type: "external", file: "",
					start_line: 0, end_line: 0, placeholder: true})`,
				map[string]any{"id": id},
			)
			if err != nil {
				return err
			}
		}

		rel := "IMPORTS"
		if edge.Type == graph.EdgeCalls {
			rel = "CALLS"
		}
		err := e.exec(
			fmt.Sprintf(`MATCH (a:Decl {id: $src}), (b:Decl {id: $dst})
				CREATE (a)-[:%s {confidence: $conf}]->(b)`, rel),
			map[string]any{"src": edge.From, "dst": edge.To, "conf": edge.Confidence},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// CountDecls returns the number of Decl rows, placeholders excluded.
func (e *KuzuExporter) CountDecls() (int64, error) {
	res, err := e.conn.Query(`MATCH (d:Decl) WHERE NOT d.placeholder RETURN COUNT(d)`)
	if err != nil {
		return 0, fmt.Errorf("kuzu: count decls: %w", err)
	}
	defer res.Close()
	if !res.HasNext() {
		return 0, nil
	}
	tuple, err := res.Next()
	if err != nil {
		return 0, fmt.Errorf("kuzu: read count: %w", err)
	}
	vals, err := tuple.GetAsSlice()
	if err != nil {
		return 0, fmt.Errorf("kuzu: row values: %w", err)
	}
	if len(vals) == 0 {
		return 0, nil
	}
	count, ok := vals[0].(int64)
	if !ok {
		return 0, fmt.Errorf("kuzu: unexpected count type %T", vals[0])
	}
	return count, nil
}

func (e *KuzuExporter) exec(query string, params map[string]any) error {
	stmt, err := e.conn.Prepare(query)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()
	res, err := e.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

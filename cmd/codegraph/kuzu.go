//go:build cgo

package main

import (
	"fmt"

	"codegraph/internal/store"
)

func runKuzuExport(stores *store.Manager, ref, dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("no KuzuDB path; pass -kuzu-path or set kuzuPath in config")
	}
	g, err := loadByRef(stores, ref)
	if err != nil {
		return err
	}
	exporter, err := store.NewKuzuExporter(dbPath)
	if err != nil {
		return err
	}
	defer exporter.Close()

	if err := exporter.Export(g); err != nil {
		return err
	}
	count, err := exporter.CountDecls()
	if err != nil {
		return err
	}
	fmt.Printf("exported %d declarations to %s\n", count, dbPath)
	return nil
}

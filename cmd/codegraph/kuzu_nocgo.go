//go:build !cgo

package main

import (
	"errors"

	"codegraph/internal/store"
)

func runKuzuExport(_ *store.Manager, _, _ string) error {
	return errors.New("KuzuDB export requires a cgo-enabled build")
}

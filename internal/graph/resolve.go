package graph

import (
	"path"
	"strings"
)

// sourceExtensions are stripped from the tail of a resolved relative import
// so that "./helper.js" and "./helper" land on the same target path.
var sourceExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
}

// ResolveImportBase turns a raw import specifier into the base of an edge
// target. Specifiers that do not start with "." reference external modules
// and pass through verbatim (bare and scoped package names alike).
// Relative specifiers resolve against the importing file's directory with
// "." and ".." segments collapsed; a bare "." resolves to the importer's
// own directory.
func ResolveImportBase(fromFile, specifier string) string {
	if !strings.HasPrefix(specifier, ".") {
		return specifier
	}
	resolved := path.Join(path.Dir(fromFile), specifier)
	if ext := path.Ext(resolved); sourceExtensions[ext] {
		resolved = strings.TrimSuffix(resolved, ext)
	}
	return resolved
}

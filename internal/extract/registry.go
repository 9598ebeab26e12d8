package extract

import (
	"path/filepath"
	"sort"
	"strings"
)

// Registry maps file extensions to extractors. Registration is append-only;
// indexing never unregisters a language mid-run.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Register binds an extractor to one or more file extensions (with leading
// dot, e.g. ".ts"). Later registrations for the same extension win.
func (r *Registry) Register(e Extractor, extensions ...string) {
	for _, ext := range extensions {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// ForFile returns the extractor for a file path, matched on its lowercase
// extension.
func (r *Registry) ForFile(path string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extensions returns the registered extensions sorted for stable iteration.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DefaultRegistry wires the built-in languages. The Python extractor is
// passed in because it carries a worker process; nil skips Python entirely.
func DefaultRegistry(python *PythonExtractor) *Registry {
	r := NewRegistry()
	r.Register(NewTypeScriptExtractor(DialectTypeScript), ".ts", ".mts", ".cts")
	r.Register(NewTypeScriptExtractor(DialectTSX), ".tsx")
	r.Register(NewTypeScriptExtractor(DialectJavaScript), ".js", ".jsx", ".mjs", ".cjs")
	r.Register(NewGoExtractor(), ".go")
	r.Register(NewRustExtractor(), ".rs")
	r.Register(NewZILExtractor(), ".zil", ".mud")
	if python != nil {
		r.Register(python, ".py", ".pyi")
	}
	return r
}

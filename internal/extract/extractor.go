// Package extract turns raw source text into the declaration, import, and
// call records the code graph ingests. One extractor owns each language
// family; all of them share the same fault-tolerance contract: malformed or
// incomplete input never fails, it degrades to a partial or empty result.
package extract

import (
	"context"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codegraph/internal/graph"
)

// Extractor parses source text into declaration records. Implementations
// must never fail on malformed input: source files are frequently mid-edit,
// so unparsable input yields an empty or partial result instead.
type Extractor interface {
	Parse(ctx context.Context, source []byte, filePath string) []graph.Declaration
}

// ImportExtractor is the optional capability for languages with a distinct
// import syntax.
type ImportExtractor interface {
	ExtractImports(ctx context.Context, source []byte) []graph.Import
}

// CallExtractor is the optional capability for languages whose call syntax
// the graph's lexical scan cannot read; the ZIL reader reports call sites
// directly through it.
type CallExtractor interface {
	ExtractCalls(ctx context.Context, source []byte) []graph.CallSite
}

// --- Shared tree-sitter toolkit ---

// parseTree parses source with the given grammar. A new parser is created
// per call, so extractors stay stateless and safe for concurrent use across
// indexing jobs. Returns nil when the grammar rejects outright; callers
// treat nil as "no declarations".
func parseTree(lang *tree_sitter.Language, source []byte) *tree_sitter.Tree {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil
	}
	return parser.Parse(source, nil)
}

// lineRange converts a node's zero-based row span to 1-indexed inclusive
// lines.
func lineRange(n *tree_sitter.Node) (int, int) {
	return int(n.StartPosition().Row) + 1, int(n.EndPosition().Row) + 1
}

// signatureOf returns the declaration text up to (not including) its body
// field, collapsed to a single line. Falls back to the first line when the
// node has no body.
func signatureOf(n *tree_sitter.Node, source []byte) string {
	full := n.Utf8Text(source)
	if body := n.ChildByFieldName("body"); body != nil {
		offset := int(body.StartByte()) - int(n.StartByte())
		if offset > 0 && offset <= len(full) {
			return collapseSpace(full[:offset])
		}
	}
	if idx := strings.IndexByte(full, '\n'); idx != -1 {
		full = full[:idx]
	}
	return collapseSpace(full)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hasChildToken reports whether any direct child of n is the given
// anonymous token (e.g. "async", "type").
func hasChildToken(n *tree_sitter.Node, token string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == token {
			return true
		}
	}
	return false
}

// trimQuotes strips matching string delimiters from a literal's text.
func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}

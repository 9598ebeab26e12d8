package extract

import (
	"context"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"codegraph/internal/graph"
)

// RustExtractor reads Rust source on the shared syntax-tree toolkit. Impl
// block methods attach to the struct or enum declared in the same file;
// otherwise they become loose "Type.method" records, mirroring the Go
// extractor's receiver handling.
type RustExtractor struct {
	lang *tree_sitter.Language
}

func NewRustExtractor() *RustExtractor {
	return &RustExtractor{lang: tree_sitter.NewLanguage(tree_sitter_rust.Language())}
}

type rustMethod struct {
	implType string
	method   graph.Method
	exported bool
}

func (e *RustExtractor) Parse(_ context.Context, source []byte, _ string) []graph.Declaration {
	tree := parseTree(e.lang, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var decls []graph.Declaration
	var methods []rustMethod

	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	e.walk(cursor, source, &decls, &methods)

	return attachRustMethods(decls, methods)
}

// walk recurses so items inside mod blocks are still found. Impl and trait
// bodies are consumed whole and not descended into.
func (e *RustExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, decls *[]graph.Declaration, methods *[]rustMethod) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_item":
		if d := e.namedDecl(node, source, graph.NodeFunction); d != nil {
			d.Async = strings.Contains(d.Signature, "async fn")
			*decls = append(*decls, *d)
		}
		return

	case "struct_item", "enum_item":
		if d := e.namedDecl(node, source, graph.NodeClass); d != nil {
			*decls = append(*decls, *d)
		}
		return

	case "trait_item":
		if d := e.namedDecl(node, source, graph.NodeInterface); d != nil {
			d.Methods = e.traitMethods(node, source)
			*decls = append(*decls, *d)
		}
		return

	case "type_item":
		if d := e.namedDecl(node, source, graph.NodeTypeAlias); d != nil {
			*decls = append(*decls, *d)
		}
		return

	case "const_item", "static_item":
		if d := e.namedDecl(node, source, graph.NodeConst); d != nil {
			*decls = append(*decls, *d)
		}
		return

	case "impl_item":
		e.implMethods(node, source, methods)
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, decls, methods)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, decls, methods)
		}
		cursor.GotoParent()
	}
}

func attachRustMethods(decls []graph.Declaration, methods []rustMethod) []graph.Declaration {
	byName := make(map[string]int, len(decls))
	for i, d := range decls {
		if d.Type == graph.NodeClass {
			byName[d.Name] = i
		}
	}
	for _, m := range methods {
		if idx, ok := byName[m.implType]; ok {
			decls[idx].Methods = append(decls[idx].Methods, m.method)
			continue
		}
		decls = append(decls, graph.Declaration{
			Type:      graph.NodeMethod,
			Name:      m.implType + "." + m.method.Name,
			Exported:  m.exported,
			StartLine: m.method.StartLine,
			EndLine:   m.method.EndLine,
			Signature: m.method.Signature,
		})
	}
	return decls
}

func (e *RustExtractor) namedDecl(node *tree_sitter.Node, source []byte, t graph.NodeType) *graph.Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	start, end := lineRange(node)
	return &graph.Declaration{
		Type:      t,
		Name:      nameNode.Utf8Text(source),
		Exported:  isRustPub(node),
		StartLine: start,
		EndLine:   end,
		Signature: signatureOf(node, source),
	}
}

func (e *RustExtractor) implMethods(node *tree_sitter.Node, source []byte, methods *[]rustMethod) {
	typeNode := node.ChildByFieldName("type")
	body := node.ChildByFieldName("body")
	if typeNode == nil || body == nil {
		return
	}
	implType := typeNode.Utf8Text(source)
	if idx := strings.IndexByte(implType, '<'); idx != -1 {
		implType = implType[:idx]
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil || child.Kind() != "function_item" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		start, end := lineRange(child)
		sig := signatureOf(child, source)
		*methods = append(*methods, rustMethod{
			implType: implType,
			exported: isRustPub(child),
			method: graph.Method{
				Name:      nameNode.Utf8Text(source),
				StartLine: start,
				EndLine:   end,
				Signature: sig,
				Async:     strings.Contains(sig, "async fn"),
			},
		})
	}
}

func (e *RustExtractor) traitMethods(trait *tree_sitter.Node, source []byte) []graph.Method {
	body := trait.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var methods []graph.Method
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() != "function_item" && child.Kind() != "function_signature_item" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		start, end := lineRange(child)
		methods = append(methods, graph.Method{
			Name:      nameNode.Utf8Text(source),
			StartLine: start,
			EndLine:   end,
			Signature: signatureOf(child, source),
		})
	}
	return methods
}

// ExtractImports reads use declarations. A brace list expands to one name
// per leaf; `self` inside a list refers to the prefix module itself.
func (e *RustExtractor) ExtractImports(_ context.Context, source []byte) []graph.Import {
	tree := parseTree(e.lang, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var imports []graph.Import
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	e.walkUses(cursor, source, &imports)
	return imports
}

func (e *RustExtractor) walkUses(cursor *tree_sitter.TreeCursor, source []byte, imports *[]graph.Import) {
	node := cursor.Node()
	if node.Kind() == "use_declaration" {
		if arg := node.ChildByFieldName("argument"); arg != nil {
			if imp := parseRustUse(arg.Utf8Text(source)); imp != nil {
				*imports = append(*imports, *imp)
			}
		}
		return
	}
	if cursor.GotoFirstChild() {
		e.walkUses(cursor, source, imports)
		for cursor.GotoNextSibling() {
			e.walkUses(cursor, source, imports)
		}
		cursor.GotoParent()
	}
}

// parseRustUse splits a use path into (module, imported names):
//
//	std::collections::HashMap      -> std::collections, [HashMap]
//	crate::graph::{Node, Edge}     -> crate::graph, [Node, Edge]
//	serde::*                       -> serde, [*]
//	anyhow                         -> anyhow, [anyhow]
func parseRustUse(text string) *graph.Import {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if open := strings.Index(text, "{"); open != -1 {
		prefix := strings.TrimSuffix(strings.TrimSpace(text[:open]), "::")
		list := strings.TrimSuffix(strings.TrimSpace(text[open:]), "}")
		list = strings.TrimPrefix(list, "{")
		imp := &graph.Import{Source: prefix}
		for _, entry := range strings.Split(list, ",") {
			name := rustUseLeaf(entry)
			if name == "" {
				continue
			}
			if name == "self" {
				name = rustUseLeaf(prefix)
			}
			imp.Specifiers = append(imp.Specifiers, name)
		}
		return imp
	}

	if strings.HasSuffix(text, "::*") {
		return &graph.Import{Source: strings.TrimSuffix(text, "::*"), Specifiers: []string{"*"}}
	}

	if idx := strings.LastIndex(text, "::"); idx != -1 {
		return &graph.Import{Source: text[:idx], Specifiers: []string{rustUseLeaf(text[idx+2:])}}
	}
	return &graph.Import{Source: text, Specifiers: []string{rustUseLeaf(text)}}
}

// rustUseLeaf extracts the bound name from a use entry, honoring renames
// ("x as y" binds y) and nested paths.
func rustUseLeaf(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return ""
	}
	if idx := strings.LastIndex(entry, " as "); idx != -1 {
		return strings.TrimSpace(entry[idx+4:])
	}
	if idx := strings.LastIndex(entry, "::"); idx != -1 {
		entry = entry[idx+2:]
	}
	return strings.TrimSpace(entry)
}

func isRustPub(node *tree_sitter.Node) bool {
	first := node.Child(0)
	return first != nil && first.Kind() == "visibility_modifier"
}

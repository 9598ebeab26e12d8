package extract

import (
	"context"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"codegraph/internal/graph"
)

// Dialect selects the grammar for the TypeScript-family extractor.
type Dialect int

const (
	DialectTypeScript Dialect = iota
	DialectTSX
	DialectJavaScript
)

// TypeScriptExtractor handles TypeScript, TSX, and plain JavaScript. The
// three dialects share node kinds, so one walk covers all of them; the
// JavaScript grammar simply never produces the TS-only kinds.
type TypeScriptExtractor struct {
	lang *tree_sitter.Language
}

func NewTypeScriptExtractor(d Dialect) *TypeScriptExtractor {
	var lang *tree_sitter.Language
	switch d {
	case DialectTSX:
		lang = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case DialectJavaScript:
		lang = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	default:
		lang = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	}
	return &TypeScriptExtractor{lang: lang}
}

func (e *TypeScriptExtractor) Parse(_ context.Context, source []byte, _ string) []graph.Declaration {
	tree := parseTree(e.lang, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var decls []graph.Declaration
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	e.walk(cursor, source, &decls)
	return decls
}

func (e *TypeScriptExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, decls *[]graph.Declaration) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		if d := e.namedDecl(node, source, graph.NodeFunction); d != nil {
			d.Async = hasChildToken(node, "async")
			*decls = append(*decls, *d)
		}
		return

	case "class_declaration":
		if d := e.namedDecl(node, source, graph.NodeClass); d != nil {
			d.Methods = e.classMethods(node, source)
			*decls = append(*decls, *d)
		}
		return

	case "interface_declaration":
		if d := e.namedDecl(node, source, graph.NodeInterface); d != nil {
			d.Methods = e.interfaceMethods(node, source)
			*decls = append(*decls, *d)
		}
		return

	case "type_alias_declaration":
		if d := e.namedDecl(node, source, graph.NodeTypeAlias); d != nil {
			*decls = append(*decls, *d)
		}
		return

	case "enum_declaration":
		if d := e.namedDecl(node, source, graph.NodeConst); d != nil {
			*decls = append(*decls, *d)
		}
		return

	case "lexical_declaration", "variable_declaration":
		*decls = append(*decls, e.variableDecls(node, source)...)
		return

	case "statement_block", "class_body", "arrow_function", "function_expression":
		// Only top-level declarations become nodes.
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, decls)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, decls)
		}
		cursor.GotoParent()
	}
}

func (e *TypeScriptExtractor) namedDecl(node *tree_sitter.Node, source []byte, t graph.NodeType) *graph.Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	start, end := lineRange(node)
	return &graph.Declaration{
		Type:      t,
		Name:      nameNode.Utf8Text(source),
		Exported:  isTSExported(node),
		StartLine: start,
		EndLine:   end,
		Signature: signatureOf(node, source),
	}
}

func (e *TypeScriptExtractor) classMethods(class *tree_sitter.Node, source []byte) []graph.Method {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var methods []graph.Method
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil || child.Kind() != "method_definition" {
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
			Async:     hasChildToken(child, "async"),
		})
	}
	return methods
}

func (e *TypeScriptExtractor) interfaceMethods(iface *tree_sitter.Node, source []byte) []graph.Method {
	body := iface.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var methods []graph.Method
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil || child.Kind() != "method_signature" {
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
			Signature: collapseSpace(child.Utf8Text(source)),
		})
	}
	return methods
}

// variableDecls surfaces top-level const/let bindings. Arrow functions and
// function expressions count as functions; everything else is a constant.
func (e *TypeScriptExtractor) variableDecls(node *tree_sitter.Node, source []byte) []graph.Declaration {
	exported := isTSExported(node)
	var decls []graph.Declaration
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		t := graph.NodeConst
		isAsync := false
		if value := child.ChildByFieldName("value"); value != nil {
			switch value.Kind() {
			case "arrow_function", "function_expression", "generator_function":
				t = graph.NodeFunction
				isAsync = hasChildToken(value, "async")
			}
		}
		start, end := lineRange(child)
		decls = append(decls, graph.Declaration{
			Type:      t,
			Name:      nameNode.Utf8Text(source),
			Exported:  exported,
			StartLine: start,
			EndLine:   end,
			Signature: collapseSpace(firstLine(child.Utf8Text(source))),
			Async:     isAsync,
		})
	}
	return decls
}

// ExtractImports collects import statements and re-exports with a source
// module. Side-effect imports produce a record with no specifiers.
func (e *TypeScriptExtractor) ExtractImports(_ context.Context, source []byte) []graph.Import {
	tree := parseTree(e.lang, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var imports []graph.Import
	root := tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "import_statement":
			if imp := e.importRecord(node, source); imp != nil {
				imports = append(imports, *imp)
			}
		case "export_statement":
			if imp := e.reexportRecord(node, source); imp != nil {
				imports = append(imports, *imp)
			}
		}
	}
	return imports
}

func (e *TypeScriptExtractor) importRecord(node *tree_sitter.Node, source []byte) *graph.Import {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	spec := trimQuotes(sourceNode.Utf8Text(source))
	if spec == "" {
		return nil
	}

	imp := &graph.Import{Source: spec, IsType: hasChildToken(node, "type")}
	for i := uint(0); i < node.ChildCount(); i++ {
		clause := node.Child(i)
		if clause == nil || clause.Kind() != "import_clause" {
			continue
		}
		imp.Specifiers = append(imp.Specifiers, e.clauseNames(clause, source)...)
	}
	return imp
}

func (e *TypeScriptExtractor) clauseNames(clause *tree_sitter.Node, source []byte) []string {
	var names []string
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			// Default import.
			names = append(names, child.Utf8Text(source))
		case "namespace_import":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if ns := child.NamedChild(j); ns != nil && ns.Kind() == "identifier" {
					names = append(names, ns.Utf8Text(source))
				}
			}
		case "named_imports":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				spec := child.NamedChild(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					names = append(names, nameNode.Utf8Text(source))
				}
			}
		}
	}
	return names
}

// reexportRecord handles `export { a, b } from './mod'`, which imports the
// names just like an import statement would.
func (e *TypeScriptExtractor) reexportRecord(node *tree_sitter.Node, source []byte) *graph.Import {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	spec := trimQuotes(sourceNode.Utf8Text(source))
	if spec == "" {
		return nil
	}

	imp := &graph.Import{Source: spec, IsType: hasChildToken(node, "type")}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "export_clause" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			exp := child.NamedChild(j)
			if exp == nil || exp.Kind() != "export_specifier" {
				continue
			}
			if nameNode := exp.ChildByFieldName("name"); nameNode != nil {
				imp.Specifiers = append(imp.Specifiers, nameNode.Utf8Text(source))
			}
		}
	}
	return imp
}

func isTSExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "export_statement"
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

package main

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"codegraph/internal/graph"
)

// pythonParser extracts declarations and imports from Python source with
// the tree-sitter grammar. Module-level defs, classes, and assignments
// become declarations; names with a leading underscore count as private.
type pythonParser struct {
	lang *tree_sitter.Language
}

func newPythonParser() *pythonParser {
	return &pythonParser{lang: tree_sitter.NewLanguage(tree_sitter_python.Language())}
}

func (p *pythonParser) parse(source []byte) ([]graph.Declaration, []graph.Import) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.lang); err != nil {
		return nil, nil
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var decls []graph.Declaration
	var imports []graph.Import

	root := tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil {
			continue
		}
		p.topLevel(node, source, &decls, &imports)
	}
	return decls, imports
}

func (p *pythonParser) topLevel(node *tree_sitter.Node, source []byte, decls *[]graph.Declaration, imports *[]graph.Import) {
	switch node.Kind() {
	case "function_definition":
		if d := p.function(node, source); d != nil {
			*decls = append(*decls, *d)
		}
	case "class_definition":
		if d := p.class(node, source); d != nil {
			*decls = append(*decls, *d)
		}
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			p.topLevel(def, source, decls, imports)
		}
	case "expression_statement":
		p.moduleAssignments(node, source, decls)
	case "import_statement":
		p.importStatement(node, source, imports)
	case "import_from_statement":
		p.importFrom(node, source, imports)
	}
}

func (p *pythonParser) function(node *tree_sitter.Node, source []byte) *graph.Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	return &graph.Declaration{
		Type:      graph.NodeFunction,
		Name:      name,
		Exported:  pyExported(name),
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Signature: pySignature(node, source),
		Async:     hasToken(node, "async"),
	}
}

func (p *pythonParser) class(node *tree_sitter.Node, source []byte) *graph.Declaration {
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	d := &graph.Declaration{
		Type:      graph.NodeClass,
		Name:      name,
		Exported:  pyExported(name),
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Signature: pySignature(node, source),
	}
	if body == nil {
		return d
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() == "decorated_definition" {
			child = child.ChildByFieldName("definition")
		}
		if child == nil || child.Kind() != "function_definition" {
			continue
		}
		mName := child.ChildByFieldName("name")
		if mName == nil {
			continue
		}
		d.Methods = append(d.Methods, graph.Method{
			Name:      mName.Utf8Text(source),
			StartLine: int(child.StartPosition().Row) + 1,
			EndLine:   int(child.EndPosition().Row) + 1,
			Signature: pySignature(child, source),
			Async:     hasToken(child, "async"),
		})
	}
	return d
}

// moduleAssignments surfaces `NAME = value` at module level as constants.
func (p *pythonParser) moduleAssignments(node *tree_sitter.Node, source []byte, decls *[]graph.Declaration) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		assign := node.NamedChild(i)
		if assign == nil || assign.Kind() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Kind() != "identifier" {
			continue
		}
		name := left.Utf8Text(source)
		*decls = append(*decls, graph.Declaration{
			Type:      graph.NodeConst,
			Name:      name,
			Exported:  pyExported(name),
			StartLine: int(assign.StartPosition().Row) + 1,
			EndLine:   int(assign.EndPosition().Row) + 1,
			Signature: firstLineOf(assign.Utf8Text(source)),
		})
	}
}

// importStatement handles `import a.b` and `import a as b`.
func (p *pythonParser) importStatement(node *tree_sitter.Node, source []byte, imports *[]graph.Import) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			path := child.Utf8Text(source)
			*imports = append(*imports, graph.Import{Source: path, Specifiers: []string{lastDotted(path)}})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			*imports = append(*imports, graph.Import{
				Source:     nameNode.Utf8Text(source),
				Specifiers: []string{aliasNode.Utf8Text(source)},
			})
		}
	}
}

// importFrom handles `from a.b import x, y as z` and relative forms.
// Leading dots translate to path prefixes: `.utils` becomes `./utils`,
// `..pkg` becomes `../pkg`, so the graph resolves them like any other
// relative specifier.
func (p *pythonParser) importFrom(node *tree_sitter.Node, source []byte, imports *[]graph.Import) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	src := pyModulePath(moduleNode.Utf8Text(source))
	if src == "" {
		return
	}

	imp := graph.Import{Source: src}
	sawModule := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "relative_import", "dotted_name":
			// The first occurrence is the module path itself.
			if !sawModule {
				sawModule = true
				continue
			}
			imp.Specifiers = append(imp.Specifiers, lastDotted(child.Utf8Text(source)))
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Specifiers = append(imp.Specifiers, alias.Utf8Text(source))
			}
		case "wildcard_import":
			imp.Specifiers = append(imp.Specifiers, "*")
		}
	}
	*imports = append(*imports, imp)
}

// pyModulePath rewrites a leading dot run as a relative path prefix and the
// remaining dots as path separators.
func pyModulePath(module string) string {
	dots := 0
	for dots < len(module) && module[dots] == '.' {
		dots++
	}
	rest := strings.ReplaceAll(module[dots:], ".", "/")
	switch dots {
	case 0:
		return rest
	case 1:
		if rest == "" {
			return "."
		}
		return "./" + rest
	default:
		prefix := strings.Repeat("../", dots-1)
		if rest == "" {
			return strings.TrimSuffix(prefix, "/")
		}
		return prefix + rest
	}
}

func pySignature(node *tree_sitter.Node, source []byte) string {
	full := node.Utf8Text(source)
	if body := node.ChildByFieldName("body"); body != nil {
		offset := int(body.StartByte()) - int(node.StartByte())
		if offset > 0 && offset <= len(full) {
			return strings.TrimSuffix(strings.Join(strings.Fields(full[:offset]), " "), ":")
		}
	}
	return firstLineOf(full)
}

func firstLineOf(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func hasToken(node *tree_sitter.Node, token string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == token {
			return true
		}
	}
	return false
}

func lastDotted(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx != -1 {
		return path[idx+1:]
	}
	return path
}

func pyExported(name string) bool {
	return !strings.HasPrefix(name, "_")
}

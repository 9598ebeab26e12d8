package extract

import (
	"context"
	"strings"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"codegraph/internal/graph"
)

// GoExtractor reads Go source on the shared syntax-tree toolkit. Receiver
// methods attach to the struct declared in the same file; methods whose
// receiver type lives elsewhere become loose "Type.Method" records so the
// graph still sees them.
type GoExtractor struct {
	lang *tree_sitter.Language
}

func NewGoExtractor() *GoExtractor {
	return &GoExtractor{lang: tree_sitter.NewLanguage(tree_sitter_go.Language())}
}

type goMethod struct {
	receiver string
	method   graph.Method
	sig      string
}

func (e *GoExtractor) Parse(_ context.Context, source []byte, _ string) []graph.Declaration {
	tree := parseTree(e.lang, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var decls []graph.Declaration
	var methods []goMethod

	root := tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "function_declaration":
			if d := e.funcDecl(node, source); d != nil {
				decls = append(decls, *d)
			}
		case "method_declaration":
			if m := e.methodDecl(node, source); m != nil {
				methods = append(methods, *m)
			}
		case "type_declaration":
			decls = append(decls, e.typeDecls(node, source)...)
		case "const_declaration", "var_declaration":
			decls = append(decls, e.valueDecls(node, source)...)
		}
	}

	return attachGoMethods(decls, methods)
}

// attachGoMethods folds receiver methods into their same-file type when it
// exists, otherwise keeps them as standalone method declarations named
// "Receiver.Method".
func attachGoMethods(decls []graph.Declaration, methods []goMethod) []graph.Declaration {
	byName := make(map[string]int, len(decls))
	for i, d := range decls {
		if d.Type == graph.NodeClass || d.Type == graph.NodeInterface {
			byName[d.Name] = i
		}
	}
	for _, m := range methods {
		if idx, ok := byName[m.receiver]; ok {
			decls[idx].Methods = append(decls[idx].Methods, m.method)
			continue
		}
		decls = append(decls, graph.Declaration{
			Type:      graph.NodeMethod,
			Name:      m.receiver + "." + m.method.Name,
			Exported:  isGoExported(m.method.Name),
			StartLine: m.method.StartLine,
			EndLine:   m.method.EndLine,
			Signature: m.sig,
		})
	}
	return decls
}

func (e *GoExtractor) funcDecl(node *tree_sitter.Node, source []byte) *graph.Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)
	return &graph.Declaration{
		Type:      graph.NodeFunction,
		Name:      name,
		Exported:  isGoExported(name),
		StartLine: start,
		EndLine:   end,
		Signature: signatureOf(node, source),
	}
}

func (e *GoExtractor) methodDecl(node *tree_sitter.Node, source []byte) *goMethod {
	nameNode := node.ChildByFieldName("name")
	recvNode := node.ChildByFieldName("receiver")
	if nameNode == nil || recvNode == nil {
		return nil
	}
	receiver := goReceiverType(recvNode, source)
	if receiver == "" {
		return nil
	}
	name := nameNode.Utf8Text(source)
	start, end := lineRange(node)
	sig := signatureOf(node, source)
	return &goMethod{
		receiver: receiver,
		sig:      sig,
		method: graph.Method{
			Name:      name,
			StartLine: start,
			EndLine:   end,
			Signature: sig,
		},
	}
}

// goReceiverType digs the bare type name out of a receiver parameter list,
// stripping pointers and type parameters: (s *Store[K]) yields "Store".
func goReceiverType(recv *tree_sitter.Node, source []byte) string {
	for i := uint(0); i < recv.NamedChildCount(); i++ {
		param := recv.NamedChild(i)
		if param == nil || param.Kind() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		text := typeNode.Utf8Text(source)
		text = strings.TrimPrefix(text, "*")
		if idx := strings.IndexByte(text, '['); idx != -1 {
			text = text[:idx]
		}
		return text
	}
	return ""
}

func (e *GoExtractor) typeDecls(node *tree_sitter.Node, source []byte) []graph.Declaration {
	var decls []graph.Declaration
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec == nil {
			continue
		}
		switch spec.Kind() {
		case "type_spec", "type_alias":
		default:
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		start, end := lineRange(spec)
		d := graph.Declaration{
			Type:      graph.NodeTypeAlias,
			Name:      name,
			Exported:  isGoExported(name),
			StartLine: start,
			EndLine:   end,
			Signature: "type " + collapseSpace(firstLine(spec.Utf8Text(source))),
		}
		if spec.Kind() == "type_spec" {
			if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
				switch typeNode.Kind() {
				case "struct_type":
					d.Type = graph.NodeClass
					d.Signature = "type " + name + " struct"
				case "interface_type":
					d.Type = graph.NodeInterface
					d.Signature = "type " + name + " interface"
					d.Methods = e.interfaceMethods(typeNode, source)
				}
			}
		}
		decls = append(decls, d)
	}
	return decls
}

func (e *GoExtractor) interfaceMethods(iface *tree_sitter.Node, source []byte) []graph.Method {
	var methods []graph.Method
	for i := uint(0); i < iface.NamedChildCount(); i++ {
		elem := iface.NamedChild(i)
		if elem == nil {
			continue
		}
		// Grammar versions differ on the method element kind name.
		if elem.Kind() != "method_elem" && elem.Kind() != "method_spec" {
			continue
		}
		nameNode := elem.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		start, end := lineRange(elem)
		methods = append(methods, graph.Method{
			Name:      nameNode.Utf8Text(source),
			StartLine: start,
			EndLine:   end,
			Signature: collapseSpace(elem.Utf8Text(source)),
		})
	}
	return methods
}

func (e *GoExtractor) valueDecls(node *tree_sitter.Node, source []byte) []graph.Declaration {
	var decls []graph.Declaration
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec == nil {
			continue
		}
		if spec.Kind() != "const_spec" && spec.Kind() != "var_spec" {
			continue
		}
		for j := uint(0); j < spec.NamedChildCount(); j++ {
			id := spec.NamedChild(j)
			if id == nil || id.Kind() != "identifier" {
				continue
			}
			name := id.Utf8Text(source)
			start, end := lineRange(spec)
			decls = append(decls, graph.Declaration{
				Type:      graph.NodeConst,
				Name:      name,
				Exported:  isGoExported(name),
				StartLine: start,
				EndLine:   end,
				Signature: collapseSpace(firstLine(spec.Utf8Text(source))),
			})
		}
	}
	return decls
}

// ExtractImports reads import declarations. A blank import yields a record
// with no specifiers; otherwise the alias (or the final path segment) is the
// imported name.
func (e *GoExtractor) ExtractImports(_ context.Context, source []byte) []graph.Import {
	tree := parseTree(e.lang, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var imports []graph.Import
	root := tree.RootNode()
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil || node.Kind() != "import_declaration" {
			continue
		}
		collectGoImportSpecs(node, source, &imports)
	}
	return imports
}

func collectGoImportSpecs(node *tree_sitter.Node, source []byte, imports *[]graph.Import) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_spec_list":
			collectGoImportSpecs(child, source, imports)
		case "import_spec":
			pathNode := child.ChildByFieldName("path")
			if pathNode == nil {
				continue
			}
			path := trimQuotes(pathNode.Utf8Text(source))
			if path == "" {
				continue
			}
			imp := graph.Import{Source: path}
			alias := ""
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				alias = nameNode.Utf8Text(source)
			}
			switch alias {
			case "_":
				// Blank import: side effects only.
			case "", ".":
				if idx := strings.LastIndexByte(path, '/'); idx != -1 {
					imp.Specifiers = []string{path[idx+1:]}
				} else {
					imp.Specifiers = []string{path}
				}
			default:
				imp.Specifiers = []string{alias}
			}
			*imports = append(*imports, imp)
		}
	}
}

func isGoExported(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

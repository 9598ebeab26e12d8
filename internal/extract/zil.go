package extract

import (
	"context"
	"strings"

	"codegraph/internal/graph"
)

// ZILExtractor reads ZIL, the MDL-derived interactive fiction language.
// Tree-sitter has no grammar for it, so a small recursive-descent reader
// sits on the hand-written lexer. Call syntax is <NAME ARG ...>, which the
// graph's lexical call scan cannot see, so routine bodies report their call
// sites directly.
type ZILExtractor struct{}

func NewZILExtractor() *ZILExtractor {
	return &ZILExtractor{}
}

// zilExpr is one parsed expression: an atom, number, or string leaf, or an
// angle/paren form with children.
type zilExpr struct {
	leaf      string
	leafType  zilTokenType
	children  []*zilExpr
	form      bool
	angle     bool
	startLine int
	endLine   int
}

// head returns the leading atom of an angle form, or "".
func (e *zilExpr) head() string {
	if !e.form || len(e.children) == 0 {
		return ""
	}
	first := e.children[0]
	if first.form || first.leafType != zilAtom {
		return ""
	}
	return first.leaf
}

// readAll parses the whole source into top-level expressions. The reader
// never fails: an unterminated form closes at end of input and stray
// closers are dropped.
func readAll(source string) []*zilExpr {
	lex := newZILLexer(source)
	var exprs []*zilExpr
	for {
		tok := lex.next()
		if tok.typ == zilEOF {
			return exprs
		}
		if tok.typ == zilRAngle || tok.typ == zilRParen {
			continue
		}
		exprs = append(exprs, readExpr(lex, tok))
	}
}

func readExpr(lex *zilLexer, tok zilToken) *zilExpr {
	switch tok.typ {
	case zilLAngle, zilLParen:
		expr := &zilExpr{form: true, angle: tok.typ == zilLAngle, startLine: tok.line}
		closer := zilRAngle
		if tok.typ == zilLParen {
			closer = zilRParen
		}
		for {
			inner := lex.next()
			if inner.typ == zilEOF || inner.typ == closer {
				expr.endLine = inner.line
				if inner.typ == zilEOF {
					expr.endLine = lex.line
				}
				return expr
			}
			if inner.typ == zilRAngle || inner.typ == zilRParen {
				// Mismatched closer, drop it.
				continue
			}
			expr.children = append(expr.children, readExpr(lex, inner))
		}
	default:
		return &zilExpr{leaf: tok.text, leafType: tok.typ, startLine: tok.line, endLine: tok.line}
	}
}

// Definition forms that become graph nodes.
var zilDefinitions = map[string]graph.NodeType{
	"ROUTINE":  graph.NodeFunction,
	"DEFINE":   graph.NodeFunction,
	"DEFMAC":   graph.NodeFunction,
	"OBJECT":   graph.NodeClass,
	"ROOM":     graph.NodeClass,
	"GLOBAL":   graph.NodeConst,
	"CONSTANT": graph.NodeConst,
}

// Special forms and primitives that never count as routine calls.
var zilBuiltins = map[string]bool{
	"COND": true, "AND": true, "OR": true, "NOT": true,
	"SET": true, "SETG": true, "TELL": true, "CRLF": true,
	"RETURN": true, "RTRUE": true, "RFALSE": true, "AGAIN": true,
	"REPEAT": true, "PROG": true, "BIND": true, "MAPF": true,
	"EQUAL?": true, "ZERO?": true, "FSET": true, "FSET?": true,
	"FCLEAR": true, "GETP": true, "PUTP": true, "GET": true,
	"PUT": true, "GETB": true, "PUTB": true, "MOVE": true,
	"REMOVE": true, "IN?": true, "LOC": true, "FIRST?": true,
	"NEXT?": true, "PRINT": true, "PRINTD": true, "PRINTN": true,
	"PRINTR": true, "ADD": true, "SUB": true, "MUL": true,
	"DIV": true, "MOD": true, "RANDOM": true, "VERB?": true,
	"+": true, "-": true, "*": true, "/": true,
	"G?": true, "L?": true, "G=?": true, "L=?": true, "==?": true,
}

func (e *ZILExtractor) Parse(_ context.Context, source []byte, _ string) []graph.Declaration {
	var decls []graph.Declaration
	for _, expr := range readAll(string(source)) {
		if !expr.angle {
			continue
		}
		t, ok := zilDefinitions[expr.head()]
		if !ok {
			continue
		}
		name := zilDefName(expr)
		if name == "" {
			continue
		}
		decls = append(decls, graph.Declaration{
			Type:      t,
			Name:      name,
			Exported:  true,
			StartLine: expr.startLine,
			EndLine:   expr.endLine,
			Signature: zilSignature(expr),
		})
	}
	return decls
}

// ExtractImports maps <INSERT-FILE "NAME"> to an import record carrying the
// file name as its single specifier.
func (e *ZILExtractor) ExtractImports(_ context.Context, source []byte) []graph.Import {
	var imports []graph.Import
	for _, expr := range readAll(string(source)) {
		if !expr.angle || expr.head() != "INSERT-FILE" {
			continue
		}
		if len(expr.children) < 2 {
			continue
		}
		target := expr.children[1]
		if target.form || (target.leafType != zilString && target.leafType != zilAtom) {
			continue
		}
		name := target.leaf
		if name == "" {
			continue
		}
		imports = append(imports, graph.Import{Source: name, Specifiers: []string{name}})
	}
	return imports
}

// ExtractCalls reports the head atom of every angle form inside routine
// bodies, keeping one record per occurrence so parallel calls survive.
func (e *ZILExtractor) ExtractCalls(_ context.Context, source []byte) []graph.CallSite {
	var sites []graph.CallSite
	for _, expr := range readAll(string(source)) {
		if !expr.angle {
			continue
		}
		head := expr.head()
		if head != "ROUTINE" && head != "DEFINE" && head != "DEFMAC" {
			continue
		}
		caller := zilDefName(expr)
		if caller == "" {
			continue
		}
		// Children past the name and argument list form the body.
		for _, child := range expr.children[2:] {
			collectZILCalls(child, caller, &sites)
		}
	}
	return sites
}

func collectZILCalls(expr *zilExpr, caller string, sites *[]graph.CallSite) {
	if expr == nil || !expr.form {
		return
	}
	rest := expr.children
	if expr.angle {
		if head := expr.head(); head != "" {
			if !zilBuiltins[head] && head != caller {
				*sites = append(*sites, graph.CallSite{Caller: caller, Callee: head})
			}
			rest = expr.children[1:]
		}
	}
	for _, child := range rest {
		collectZILCalls(child, caller, sites)
	}
}

func zilDefName(expr *zilExpr) string {
	if len(expr.children) < 2 {
		return ""
	}
	name := expr.children[1]
	if name.form || name.leafType != zilAtom {
		return ""
	}
	return name.leaf
}

// zilSignature reconstructs the definition header: the form keyword, the
// name, and the argument list when one follows.
func zilSignature(expr *zilExpr) string {
	parts := []string{expr.head(), zilDefName(expr)}
	if len(expr.children) > 2 {
		if args := expr.children[2]; args.form && !args.angle {
			var names []string
			for _, a := range args.children {
				if !a.form {
					names = append(names, a.leaf)
				}
			}
			parts = append(parts, "("+strings.Join(names, " ")+")")
		}
	}
	return "<" + strings.Join(parts, " ") + ">"
}

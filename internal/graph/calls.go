package graph

import "regexp"

// callSitePattern matches identifier sequences (optionally dotted, e.g.
// a.b.c) immediately followed by an opening parenthesis. The final dotted
// segment is the candidate callee name.
var callSitePattern = regexp.MustCompile(
	`([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*)\s*\(`)

// callKeywords are language keywords that precede "(" without being calls:
// control flow and declaration keywords across the supported languages.
var callKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "catch": true, "return": true,
	"function": true, "func": true, "fn": true, "new": true,
	"typeof": true, "instanceof": true, "delete": true, "void": true,
	"throw": true, "await": true, "yield": true, "defer": true,
	"go": true, "select": true, "range": true, "match": true,
	"loop": true, "constructor": true, "super": true, "with": true,
}

// callTarget points a bare callee name at a node. Same-file declarations
// take precedence over declarations from other files; beyond that, first
// ingestion wins.
type callTarget struct {
	id   string
	file string
}

// AnalyzeCalls runs the call-relationship pass over every file ingested so
// far. It must run only after all files of a store are in the graph: a
// declaration in one file may be called from another, and within a file a
// callee may be declared after its caller. Matching is purely lexical, so
// the resulting edges are a ranking signal, not ground truth: a candidate
// that matches the bare name of any declaration or method resolves with
// full confidence, anything else becomes an "unknown:" edge at half
// confidence. Parallel edges for repeated call sites are kept so ranking
// reflects call volume.
func (g *CodeGraph) AnalyzeCalls() {
	index := g.buildNameIndex()

	for _, fr := range g.files {
		for _, d := range fr.decls {
			switch d.Type {
			case NodeClass, NodeInterface:
				// Scan each member body on its own so that method
				// definition lines do not read as container-level calls.
				for _, m := range d.Methods {
					fromID := MethodID(fr.path, d.Name, m.Name)
					g.scanBody(fr, m.StartLine, m.EndLine, m.Name, fromID, index)
				}
			default:
				fromID := NodeID(fr.path, d.Name)
				g.scanBody(fr, d.StartLine, d.EndLine, bareName(d.Name), fromID, index)
			}
		}
		for _, site := range fr.direct {
			g.addCallEdge(NodeID(fr.path, site.Caller), site.Callee, fr.path, index)
		}
	}

	// Records are only needed once; drop them so a long-lived graph does
	// not pin every file's source in memory.
	g.files = g.files[:0]
}

// scanBody scans one declaration body (sliced from the retained source by
// line range) for call-like tokens. Matches of the enclosing declaration's
// own bare name are skipped: the definition line is inside the scanned
// range, so they would otherwise produce a guaranteed self-edge per
// declaration.
func (g *CodeGraph) scanBody(fr fileRecord, startLine, endLine int, enclosing, fromID string, index map[string][]callTarget) {
	body := sliceLines(fr.lines, startLine, endLine)
	if body == "" {
		return
	}
	for _, m := range callSitePattern.FindAllStringSubmatch(body, -1) {
		candidate := finalSegment(m[1])
		if callKeywords[candidate] || candidate == enclosing {
			continue
		}
		g.addCallEdge(fromID, candidate, fr.path, index)
	}
}

func (g *CodeGraph) addCallEdge(fromID, callee, file string, index map[string][]callTarget) {
	if to, ok := resolveCallee(index, callee, file); ok {
		g.addEdge(Edge{From: fromID, To: to, Type: EdgeCalls, Confidence: ConfidenceResolved})
		return
	}
	g.addEdge(Edge{From: fromID, To: UnknownTargetPrefix + callee, Type: EdgeCalls, Confidence: ConfidenceUnknown})
}

// buildNameIndex maps bare declaration names to their nodes in insertion
// order. Method nodes are indexed by their member name; Go/Rust methods
// attached to receivers declared elsewhere carry dotted names and are
// likewise indexed by the final segment.
func (g *CodeGraph) buildNameIndex() map[string][]callTarget {
	index := make(map[string][]callTarget)
	for _, id := range g.order {
		n := g.nodes[id]
		name := bareName(n.Name)
		if name == "" {
			continue
		}
		index[name] = append(index[name], callTarget{id: n.ID, file: n.File})
	}
	return index
}

// resolveCallee picks the edge target for a candidate name: a declaration
// in the calling file wins, then the first-ingested declaration anywhere in
// the store.
func resolveCallee(index map[string][]callTarget, name, file string) (string, bool) {
	targets := index[name]
	if len(targets) == 0 {
		return "", false
	}
	for _, t := range targets {
		if t.file == file {
			return t.id, true
		}
	}
	return targets[0].id, true
}

// sliceLines returns the inclusive 1-indexed line range as one string,
// clamped to the available lines.
func sliceLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	out := lines[start-1]
	for i := start; i < end; i++ {
		out += "\n" + lines[i]
	}
	return out
}

func finalSegment(dotted string) string {
	for i := len(dotted) - 1; i >= 0; i-- {
		if dotted[i] == '.' {
			return dotted[i+1:]
		}
	}
	return dotted
}

func bareName(name string) string {
	return finalSegment(name)
}

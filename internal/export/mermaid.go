// Package export renders code graphs into human-readable formats.
package export

import (
	"fmt"
	"sort"
	"strings"

	"codegraph/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram. Nodes are grouped
// into one subgraph per source file; import edges are solid arrows and call
// edges are labeled with their confidence.
func GenerateMermaid(g *graph.CodeGraph) string {
	nodes := g.GetAllNodes()

	// Mermaid identifiers must be alphanumeric.
	mermaidIDs := make(map[string]string)
	nextID := 0
	getID := func(id string) string {
		if mid, ok := mermaidIDs[id]; ok {
			return mid
		}
		mid := fmt.Sprintf("N%d", nextID)
		nextID++
		mermaidIDs[id] = mid
		return mid
	}

	byFile := make(map[string][]*graph.Node)
	var files []string
	for _, n := range nodes {
		if len(byFile[n.File]) == 0 {
			files = append(files, n.File)
		}
		byFile[n.File] = append(byFile[n.File], n)
	}
	sort.Strings(files)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, file := range files {
		sb.WriteString(fmt.Sprintf("  subgraph F%d[\"%s\"]\n", i, shortPath(file)))
		for _, n := range byFile[file] {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(n.ID), nodeLabel(n)))
		}
		sb.WriteString("  end\n")
	}

	doc := g.ToJSON()

	// Edge targets with no node (module specifiers, unknown: callees) get
	// stadium-shaped external nodes so arrows stay labeled.
	declared := make(map[string]bool, len(mermaidIDs))
	for id := range mermaidIDs {
		declared[id] = true
	}
	for _, e := range doc.Edges {
		for _, id := range []string{e.From, e.To} {
			if declared[id] {
				continue
			}
			declared[id] = true
			sb.WriteString(fmt.Sprintf("  %s([\"%s\"])\n", getID(id), strings.ReplaceAll(id, `"`, "'")))
		}
	}

	for _, e := range doc.Edges {
		from := getID(e.From)
		to := getID(e.To)
		switch e.Type {
		case graph.EdgeImports:
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", from, to))
		case graph.EdgeCalls:
			sb.WriteString(fmt.Sprintf("  %s -- \"calls %.1f\" --> %s\n", from, e.Confidence, to))
		}
	}

	return sb.String()
}

// nodeLabel keeps diagrams readable: name plus a short type marker.
func nodeLabel(n *graph.Node) string {
	name := strings.ReplaceAll(n.Name, `"`, "'")
	return fmt.Sprintf("%s (%s)", name, n.Type)
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

const zilSample = `
"Sample game file"

<INSERT-FILE "GLOBALS">

<GLOBAL SCORE 0>
<CONSTANT MAX-SCORE 350>

<OBJECT LANTERN
    (IN LIVING-ROOM)
    (DESC "brass lantern")>

<ROOM LIVING-ROOM
    (DESC "Living Room")>

<ROUTINE TURN-ON-LANTERN (LAMP "AUX" BRIGHTNESS)
    <COND (<FSET? .LAMP ,ONBIT>
           <TELL "It is already on." CR>)
          (T
           <FSET .LAMP ,ONBIT>
           <ILLUMINATE .LAMP>)>>

<ROUTINE ILLUMINATE (LAMP)
    <SETG SCORE <ADD ,SCORE 5>>
    <RTRUE>>
`

// ---------------------------------------------------------------------------
// TestZILExtractor_Parse
// ---------------------------------------------------------------------------

func TestZILExtractor_Parse_Definitions(t *testing.T) {
	e := NewZILExtractor()
	decls := e.Parse(context.Background(), []byte(zilSample), "game.zil")

	turnOn := findDecl(decls, "TURN-ON-LANTERN")
	require.NotNil(t, turnOn)
	assert.Equal(t, graph.NodeFunction, turnOn.Type)
	assert.True(t, turnOn.Exported)
	assert.Contains(t, turnOn.Signature, "ROUTINE TURN-ON-LANTERN")
	assertLineRange(t, turnOn)

	lantern := findDecl(decls, "LANTERN")
	require.NotNil(t, lantern)
	assert.Equal(t, graph.NodeClass, lantern.Type)

	room := findDecl(decls, "LIVING-ROOM")
	require.NotNil(t, room)
	assert.Equal(t, graph.NodeClass, room.Type)

	score := findDecl(decls, "SCORE")
	require.NotNil(t, score)
	assert.Equal(t, graph.NodeConst, score.Type)

	maxScore := findDecl(decls, "MAX-SCORE")
	require.NotNil(t, maxScore)
	assert.Equal(t, graph.NodeConst, maxScore.Type)
}

func TestZILExtractor_Parse_LineRanges(t *testing.T) {
	src := []byte("<ROUTINE GO ()\n    <TELL \"hi\" CR>\n    <RTRUE>>\n")

	e := NewZILExtractor()
	decls := e.Parse(context.Background(), src, "go.zil")

	require.Len(t, decls, 1)
	assert.Equal(t, 1, decls[0].StartLine)
	assert.Equal(t, 3, decls[0].EndLine)
}

func TestZILExtractor_Parse_UnterminatedForm(t *testing.T) {
	src := []byte(`<ROUTINE BROKEN (X)
    <TELL "never closed"`)

	e := NewZILExtractor()
	decls := e.Parse(context.Background(), src, "broken.zil")

	// The reader closes open forms at end of input instead of failing.
	require.Len(t, decls, 1)
	assert.Equal(t, "BROKEN", decls[0].Name)
}

func TestZILExtractor_Parse_CommentsIgnored(t *testing.T) {
	src := []byte(`;<ROUTINE DISABLED ()>
<GLOBAL LIVES 3> ;trailing note
`)

	e := NewZILExtractor()
	decls := e.Parse(context.Background(), []byte(src), "c.zil")

	assert.Nil(t, findDecl(decls, "DISABLED"))
	assert.NotNil(t, findDecl(decls, "LIVES"))
}

// ---------------------------------------------------------------------------
// TestZILExtractor_ExtractImports
// ---------------------------------------------------------------------------

func TestZILExtractor_ExtractImports(t *testing.T) {
	e := NewZILExtractor()
	imports := e.ExtractImports(context.Background(), []byte(zilSample))

	require.Len(t, imports, 1)
	assert.Equal(t, "GLOBALS", imports[0].Source)
	assert.Equal(t, []string{"GLOBALS"}, imports[0].Specifiers)
}

// ---------------------------------------------------------------------------
// TestZILExtractor_ExtractCalls
// ---------------------------------------------------------------------------

func TestZILExtractor_ExtractCalls(t *testing.T) {
	e := NewZILExtractor()
	sites := e.ExtractCalls(context.Background(), []byte(zilSample))

	require.Len(t, sites, 1, "builtins and self references are excluded")
	assert.Equal(t, "TURN-ON-LANTERN", sites[0].Caller)
	assert.Equal(t, "ILLUMINATE", sites[0].Callee)
}

func TestZILExtractor_ExtractCalls_NestedAndParallel(t *testing.T) {
	src := []byte(`
<ROUTINE MAIN ()
    <GREET>
    <COND (<VERB? LOOK> <GREET>)>>
`)

	e := NewZILExtractor()
	sites := e.ExtractCalls(context.Background(), src)

	require.Len(t, sites, 2, "each occurrence is its own record")
	assert.Equal(t, "GREET", sites[0].Callee)
	assert.Equal(t, "GREET", sites[1].Callee)
}

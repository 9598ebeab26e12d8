package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ForFile(t *testing.T) {
	r := DefaultRegistry(nil)

	ts, ok := r.ForFile("/src/app.ts")
	require.True(t, ok)
	assert.IsType(t, &TypeScriptExtractor{}, ts)

	upper, ok := r.ForFile("/src/APP.TS")
	require.True(t, ok, "extension match is case-insensitive")
	assert.Equal(t, ts, upper)

	goExt, ok := r.ForFile("main.go")
	require.True(t, ok)
	assert.IsType(t, &GoExtractor{}, goExt)

	zil, ok := r.ForFile("dungeon.zil")
	require.True(t, ok)
	assert.IsType(t, &ZILExtractor{}, zil)

	_, ok = r.ForFile("notes.txt")
	assert.False(t, ok)

	_, ok = r.ForFile("script.py")
	assert.False(t, ok, "python is skipped without a worker")
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	first := NewGoExtractor()
	second := NewRustExtractor()

	r.Register(first, ".x")
	r.Register(second, ".x")

	got, ok := r.ForFile("a.x")
	require.True(t, ok)
	assert.Equal(t, Extractor(second), got)
}

func TestRegistry_Extensions(t *testing.T) {
	r := NewRegistry()
	r.Register(NewGoExtractor(), ".go")
	r.Register(NewRustExtractor(), ".rs")

	assert.Equal(t, []string{".go", ".rs"}, r.Extensions())
}

package index

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collectWalk(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	var got []string
	require.NoError(t, w.Walk(root, func(_, rel string) error {
		got = append(got, rel)
		return nil
	}))
	sort.Strings(got)
	return got
}

func TestWalker_SkipsBuiltinDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export const x = 1;")
	writeFile(t, root, "node_modules/react/index.js", "module.exports = {};")
	writeFile(t, root, ".git/config", "")
	writeFile(t, root, "vendor/lib.go", "package lib")

	w := NewWalker(nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := collectWalk(t, w, root)

	assert.Equal(t, []string{"src/app.ts"}, got)
}

func TestWalker_HonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "dist/\n*.gen.ts\n")
	writeFile(t, root, "src/app.ts", "")
	writeFile(t, root, "src/api.gen.ts", "")
	writeFile(t, root, "dist/bundle.js", "")

	w := NewWalker(nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := collectWalk(t, w, root)

	assert.Equal(t, []string{".gitignore", "src/app.ts"}, got)
}

func TestWalker_ExtraExcludesAndSizeCap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gen/big.ts", "x")
	writeFile(t, root, "src/ok.ts", "const a = 1;")
	writeFile(t, root, "src/huge.ts", string(make([]byte, 128)))

	w := NewWalker([]string{"gen"}, 64, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := collectWalk(t, w, root)

	assert.Equal(t, []string{"src/ok.ts"}, got)
}

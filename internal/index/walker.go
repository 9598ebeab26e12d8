// Package index walks project trees and feeds their sources through the
// extractors into a code graph, one store at a time.
package index

import (
	"io/fs"
	"log/slog"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// Directory names never worth indexing.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"__pycache__":  true,
}

// Walker lists candidate source files under a root, honoring the root's
// .gitignore when one exists.
type Walker struct {
	exclude map[string]bool
	maxSize int64
	logger  *slog.Logger
}

func NewWalker(excludeDirs []string, maxSize int64, logger *slog.Logger) *Walker {
	exclude := make(map[string]bool, len(skipDirs)+len(excludeDirs))
	for name := range skipDirs {
		exclude[name] = true
	}
	for _, name := range excludeDirs {
		exclude[name] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{exclude: exclude, maxSize: maxSize, logger: logger}
}

// Walk calls fn with the absolute path and root-relative path of every
// regular file that survives the directory and gitignore filters. fn
// returning an error stops the walk.
func (w *Walker) Walk(root string, fn func(absPath, relPath string) error) error {
	var matcher *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		matcher = gi
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are logged and skipped, not fatal.
			w.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if w.exclude[d.Name()] || (matcher != nil && matcher.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if w.maxSize > 0 {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > w.maxSize {
				w.logger.Debug("skipping oversized file", "path", path, "size", info.Size())
				return nil
			}
		}
		return fn(path, filepath.ToSlash(rel))
	})
}

// Package fs provides file system adapters for staleness checks, input expansion and hashing.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
)

// DefaultIgnores are directory names never descended into when walking a directory input.
var DefaultIgnores = []string{".git", ".jj", ".forge"}

// Walker yields the regular files below a directory.
type Walker struct {
	ignores []string
}

// NewWalker creates a Walker skipping DefaultIgnores and any additional name patterns.
func NewWalker(ignores ...string) *Walker {
	return &Walker{ignores: append(slices.Clone(DefaultIgnores), ignores...)}
}

// WalkFiles yields every file below root in lexical order. Yielded paths include root.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && w.Ignored(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// WalkDirs yields root and every directory below it that is not ignored.
// Unreadable directories are skipped.
func (w *Walker) WalkDirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil //nolint:nilerr // unreadable entries are skipped
			}
			if path != root && w.Ignored(d.Name()) {
				return filepath.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Ignored reports whether a file or directory name matches one of the ignore patterns.
func (w *Walker) Ignored(name string) bool {
	for _, pattern := range w.ignores {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

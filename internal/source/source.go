// Package source supplies the files of a local directory tree to the
// analysis pipeline.
package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/archmap/internal/graph"
)

// File is one regular file of a repository. Path is repository relative and
// slash separated. Open is called at most once per analysis.
type File struct {
	Path string
	Size int64
	Open func() (io.ReadCloser, error)
}

// DefaultIgnoreDirs are directory names never descended into.
var DefaultIgnoreDirs = []string{
	".git", ".svn", ".hg", ".archmap", "__pycache__", "node_modules",
	".venv", "venv", "vendor", "dist", "build", "target",
}

// WalkOptions configure a directory walk.
type WalkOptions struct {
	// IgnoreDirs replaces DefaultIgnoreDirs when non-empty.
	IgnoreDirs []string
	// ExcludeDirs are skipped in addition to IgnoreDirs.
	ExcludeDirs []string
	// IgnorePatterns are filepath.Match patterns tested against base names.
	IgnorePatterns []string
	// IncludeHidden keeps dot-directories and dot-files.
	IncludeHidden bool
	// IncludeUnknown keeps files whose language cannot be detected and that
	// are not configuration files.
	IncludeUnknown bool
}

// Walk lists the files under root, sorted by path. Unreadable directories
// are skipped; an error is returned only when root itself cannot be walked.
func Walk(root string, opts WalkOptions) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	skip := make(map[string]bool)
	ignore := opts.IgnoreDirs
	if len(ignore) == 0 {
		ignore = DefaultIgnoreDirs
	}
	for _, dirs := range [][]string{ignore, opts.ExcludeDirs} {
		for _, d := range dirs {
			skip[d] = true
		}
	}

	var files []File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		name := d.Name()
		hidden := strings.HasPrefix(name, ".")

		if d.IsDir() {
			if skip[name] || (hidden && !opts.IncludeHidden) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !keep(rel, hidden, opts) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, File{Path: rel, Size: fi.Size(), Open: opener(p)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func keep(rel string, hidden bool, opts WalkOptions) bool {
	base := path.Base(rel)
	for _, pattern := range opts.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}
	config := graph.IsConfigPath(rel)
	if hidden && !opts.IncludeHidden && !config {
		return false
	}
	return opts.IncludeUnknown || config || graph.DetectLanguage(rel) != graph.LangUnknown
}

func opener(p string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return os.Open(p) }
}

// FromMemory builds files backed by in-memory contents, sorted by path.
func FromMemory(contents map[string]string) []File {
	files := make([]File, 0, len(contents))
	for p, c := range contents {
		files = append(files, File{
			Path: p,
			Size: int64(len(c)),
			Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(c)), nil },
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

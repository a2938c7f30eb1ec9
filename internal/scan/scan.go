// Package scan enumerates eligible source files under a project root,
// honoring exclude patterns and a language-extension allow list.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludes are directory names skipped in every scan. Callers add
// their own patterns on top; they never replace these.
var DefaultExcludes = []string{
	"node_modules", "venv", "env", "__pycache__", ".git",
	"dist", "build", "out", ".vscode", ".idea", "coverage",
	"vendor", "target", "bin", "obj",
}

// DefaultExtensions is the language allow list.
var DefaultExtensions = []string{".py", ".js", ".ts", ".jsx", ".tsx"}

// Options configures one scan.
type Options struct {
	// Excludes are extra directory/file names to skip.
	Excludes []string
	// Extensions overrides DefaultExtensions when non-empty.
	Extensions []string
}

// File is one eligible source file.
type File struct {
	// Rel is the root-relative path with forward slashes.
	Rel string
	// Abs is the absolute filesystem path.
	Abs string
	// Size in bytes.
	Size int64
	// ModTimeUnixNano is the mtime fingerprint component.
	ModTimeUnixNano int64
}

// Dir walks root and returns eligible files sorted by relative path.
// A missing root is an error; an empty result is not.
func Dir(root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan: %s is not a directory", root)
	}

	exclude := make(map[string]struct{}, len(DefaultExcludes)+len(opts.Excludes))
	for _, p := range DefaultExcludes {
		exclude[p] = struct{}{}
	}
	for _, p := range opts.Excludes {
		if p = strings.TrimSpace(p); p != "" {
			exclude[p] = struct{}{}
		}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allow := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allow[strings.ToLower(e)] = struct{}{}
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		base := filepath.Base(path)
		if d.IsDir() {
			if path != root {
				if _, skip := exclude[base]; skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if _, skip := exclude[base]; skip {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(base))
		if _, ok := allow[ext]; !ok {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		fi, serr := os.Stat(path)
		if serr != nil {
			return nil
		}
		files = append(files, File{
			Rel:             filepath.ToSlash(rel),
			Abs:             path,
			Size:            fi.Size(),
			ModTimeUnixNano: fi.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

// ParseExcludeCSV splits a comma-separated exclude flag into patterns.
func ParseExcludeCSV(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

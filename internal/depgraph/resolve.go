package depgraph

import (
	"path"
	"strings"
)

// Source extensions tried during resolution, in priority order.
var resolveExts = []string{".py", ".js", ".ts", ".jsx", ".tsx"}

// Index-style files that let a directory act as an importable package.
var indexFiles = []string{"__init__.py", "index.js", "index.ts", "index.jsx", "index.tsx"}

// Resolve maps a raw import string to a project-relative file path, testing
// candidates against the known file set only. Priority is deterministic:
// relative resolution when the import starts with a dot, otherwise dotted
// module resolution from the project root; within either, extension-suffixed
// candidates win over package/index forms. Returns false for anything that
// matches no project file (external package, typo, excluded file).
func Resolve(imp, importer string, known map[string]struct{}) (string, bool) {
	imp = strings.TrimSpace(imp)
	if imp == "" {
		return "", false
	}
	if strings.HasPrefix(imp, ".") {
		return resolveRelative(imp, path.Dir(importer), known)
	}
	return resolveDotted(imp, known)
}

// resolveRelative handles "./utils", "../pkg/mod" (JS style) and ".mod",
// "..pkg.mod" (Python style). N leading dots walk up N-1 directories from
// the importer's directory.
func resolveRelative(imp, dir string, known map[string]struct{}) (string, bool) {
	dots := 0
	for dots < len(imp) && imp[dots] == '.' {
		dots++
	}
	rest := strings.TrimPrefix(imp[dots:], "/")

	base := dir
	if base == "." {
		base = ""
	}
	for i := 1; i < dots; i++ {
		base = path.Dir(base)
		if base == "." {
			base = ""
		}
	}
	if p, ok := firstCandidate(path.Join(base, rest), known); ok {
		return p, true
	}
	// Python relative imports separate segments with dots, JS with slashes.
	// Retry with dots mapped to separators when the slash form missed.
	if !strings.Contains(rest, "/") && strings.Contains(rest, ".") {
		return firstCandidate(path.Join(base, strings.ReplaceAll(rest, ".", "/")), known)
	}
	return "", false
}

// resolveDotted handles absolute module paths like "services.parser", mapped
// from the project root with dots as separators.
func resolveDotted(imp string, known map[string]struct{}) (string, bool) {
	target := strings.ReplaceAll(imp, ".", "/")
	return firstCandidate(target, known)
}

func firstCandidate(target string, known map[string]struct{}) (string, bool) {
	target = strings.Trim(path.Clean("/"+target), "/")
	if target == "" {
		return "", false
	}
	// Exact path (import already carries an extension).
	if _, ok := known[target]; ok {
		return target, true
	}
	for _, ext := range resolveExts {
		if c := target + ext; member(known, c) {
			return c, true
		}
	}
	for _, idx := range indexFiles {
		if c := target + "/" + idx; member(known, c) {
			return c, true
		}
	}
	return "", false
}

func member(known map[string]struct{}, p string) bool {
	_, ok := known[p]
	return ok
}

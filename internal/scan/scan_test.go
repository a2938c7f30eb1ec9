package scan

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func write(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func rels(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}

func TestDir_FiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	write(t, root, "b.py")
	write(t, root, "a.py")
	write(t, root, "src/app.js")
	write(t, root, "src/types.ts")
	write(t, root, "README.md")
	write(t, root, "node_modules/lib/index.js")
	write(t, root, "__pycache__/a.cpython-311.pyc")
	write(t, root, "venv/lib/site.py")

	files, err := Dir(root, Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"a.py", "b.py", "src/app.js", "src/types.ts"}
	if got := rels(files); !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestDir_ExtraExcludes(t *testing.T) {
	root := t.TempDir()
	write(t, root, "keep.py")
	write(t, root, "tests/test_keep.py")
	write(t, root, "docs/gen.py")

	files, err := Dir(root, Options{Excludes: []string{"tests", "docs"}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got := rels(files); !slices.Equal(got, []string{"keep.py"}) {
		t.Fatalf("got=%v", got)
	}
}

func TestDir_MissingRoot(t *testing.T) {
	if _, err := Dir(filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestDir_FileRoot(t *testing.T) {
	root := t.TempDir()
	write(t, root, "f.py")
	if _, err := Dir(filepath.Join(root, "f.py"), Options{}); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestParseExcludeCSV(t *testing.T) {
	got := ParseExcludeCSV(" tests , docs,,examples ")
	want := []string{"tests", "docs", "examples"}
	if !slices.Equal(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if ParseExcludeCSV("  ") != nil {
		t.Fatal("blank csv must return nil")
	}
}

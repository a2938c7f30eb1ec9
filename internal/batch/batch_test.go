package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"cartograph/internal/cache/snapshot"
	"cartograph/internal/parser"
	"cartograph/internal/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "app.py", "import utils\n\ndef main():\n    run()\n")
	writeFile(t, root, "utils.py", "def run():\n    pass\n")
	writeFile(t, root, "web/index.js", "import './app';\nfunction boot() {}\n")
	writeFile(t, root, "node_modules/dep/index.js", "function hidden() {}\n")
	writeFile(t, root, "README.md", "# nope\n")
	return root
}

func TestAnalyzeProject(t *testing.T) {
	root := testTree(t)
	a := New(parser.New(), nil, nil)

	pa, err := a.AnalyzeProject(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if pa.Statistics.TotalFiles != 3 || pa.Statistics.Successful != 3 || pa.Statistics.Failed != 0 {
		t.Fatalf("stats=%+v", pa.Statistics)
	}
	// results keep scan order
	if pa.Files[0].Path != "app.py" || pa.Files[1].Path != "utils.py" || pa.Files[2].Path != "web/index.js" {
		t.Fatalf("order=%v %v %v", pa.Files[0].Path, pa.Files[1].Path, pa.Files[2].Path)
	}
	app, ok := pa.FileByPath("app.py")
	if !ok || app.Status != types.StatusSuccess {
		t.Fatalf("app=%+v", app)
	}
	if len(app.Facts.Imports) != 1 || app.Facts.Imports[0] != "utils" {
		t.Fatalf("imports=%v", app.Facts.Imports)
	}
	if app.FileName != "app.py" || app.Ext != ".py" || app.Size == 0 {
		t.Fatalf("metadata=%+v", app)
	}
}

func TestWorkerCount(t *testing.T) {
	if got := workerCount(0, 100); got != runtime.GOMAXPROCS(0) {
		t.Fatalf("default workers=%d want %d", got, runtime.GOMAXPROCS(0))
	}
	if got := workerCount(8, 3); got != 3 {
		t.Fatalf("workers=%d want 3 (capped by file count)", got)
	}
	if got := workerCount(2, 100); got != 2 {
		t.Fatalf("workers=%d want 2", got)
	}
}

func TestAnalyzeProject_EmptyTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "nothing here")
	a := New(parser.New(), nil, nil)

	if _, err := a.AnalyzeProject(context.Background(), root, Options{}); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err=%v", err)
	}
}

func TestAnalyzeProject_MissingRoot(t *testing.T) {
	a := New(parser.New(), nil, nil)
	if _, err := a.AnalyzeProject(context.Background(), filepath.Join(t.TempDir(), "gone"), Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnalyzeProject_PerFileFailureDoesNotAbort(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.py", "def ok(): pass\n")
	writeFile(t, root, "locked.py", "def hidden(): pass\n")
	if err := os.Chmod(filepath.Join(root, "locked.py"), 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked.py"), 0o644) })
	if os.Geteuid() == 0 {
		t.Skip("chmod has no effect when running as root")
	}

	a := New(parser.New(), nil, nil)
	pa, err := a.AnalyzeProject(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if pa.Statistics.Successful != 1 || pa.Statistics.Failed != 1 {
		t.Fatalf("stats=%+v", pa.Statistics)
	}
	locked, _ := pa.FileByPath("locked.py")
	if locked.Status != types.StatusError || locked.Error == "" {
		t.Fatalf("locked=%+v", locked)
	}
}

func TestAnalyzeProject_SnapshotReuse(t *testing.T) {
	root := testTree(t)
	snaps, err := snapshot.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open snapshots: %v", err)
	}
	defer snaps.Close()

	a := New(parser.New(), snaps, nil)
	first, err := a.AnalyzeProject(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	abs := filepath.Join(root, "utils.py")
	if err := os.WriteFile(abs, []byte("def changed(): pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// NoCache bypasses snapshots and must see the rewritten file
	second, err := a.AnalyzeProject(context.Background(), root, Options{NoCache: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	utils, _ := second.FileByPath("utils.py")
	if len(utils.Facts.Definitions) != 1 || utils.Facts.Definitions[0] != "changed" {
		t.Fatalf("defs=%v", utils.Facts.Definitions)
	}
	firstUtils, _ := first.FileByPath("utils.py")
	if firstUtils.Facts.Definitions[0] != "run" {
		t.Fatalf("first defs=%v", firstUtils.Facts.Definitions)
	}
}

func TestAnalyzeProject_CanceledContext(t *testing.T) {
	root := testTree(t)
	a := New(parser.New(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.AnalyzeProject(ctx, root, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cartograph/internal/batch"
	analysiscache "cartograph/internal/cache/analysis"
	"cartograph/internal/cache/runstore"
	"cartograph/internal/events"
	"cartograph/internal/llm"
	"cartograph/internal/parser"
	"cartograph/internal/summarizer"
)

func newTestServer(t *testing.T, withAI bool) (*Server, *events.Hub) {
	t.Helper()
	cache, err := analysiscache.New(16)
	if err != nil {
		t.Fatal(err)
	}
	hub := events.NewHub()
	var summ *summarizer.Summarizer
	if withAI {
		summ = summarizer.New(llm.NewFakeClient("fake answer"))
	}
	analyzer := batch.New(parser.New(), nil, hub)
	return New(analyzer, cache, hub, summ, runstore.New(""), nil), hub
}

func testProjectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app.py":       "import utils\n\ndef main():\n    run()\n",
		"utils.py":     "def run():\n    pass\n",
		"sub/extra.py": "from utils import run\n",
	}
	for rel, content := range files {
		abs := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// analyzeAndWait posts an analyze request and blocks until the terminal
// event arrives.
func analyzeAndWait(t *testing.T, ts *httptest.Server, hub *events.Hub, body map[string]any) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := hub.Subscribe(ctx)

	raw, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var started struct {
		ProjectID string `json:"project_id"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if started.Status != "started" || started.ProjectID == "" {
		t.Fatalf("started=%+v", started)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-sub:
			if ev.Type == events.TypeComplete && ev.ProjectID == started.ProjectID {
				return started.ProjectID
			}
			if ev.Type == events.TypeError {
				t.Fatalf("analysis failed: %s", ev.Error)
			}
		case <-deadline:
			t.Fatal("analysis did not complete")
		}
	}
}

func TestAnalyze_InvalidPath(t *testing.T) {
	s, _ := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	raw := []byte(`{"path": "/definitely/not/there"}`)
	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestAnalyzeThenReadProject(t *testing.T) {
	s, hub := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	root := testProjectDir(t)
	id := analyzeAndWait(t, ts, hub, map[string]any{"path": root})

	resp, err := http.Get(ts.URL + "/api/project/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var proj struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Analysis struct {
			Statistics struct {
				TotalFiles int `json:"total_files"`
			} `json:"statistics"`
		} `json:"analysis"`
		Dependencies struct {
			Nodes []string `json:"nodes"`
		} `json:"dependencies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&proj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if proj.ID != id || proj.Name != filepath.Base(root) {
		t.Fatalf("proj=%+v", proj)
	}
	if proj.Analysis.Statistics.TotalFiles != 3 || len(proj.Dependencies.Nodes) != 3 {
		t.Fatalf("proj=%+v", proj)
	}
}

func TestGetProject_Unknown(t *testing.T) {
	s, _ := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/project/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestGetGraph(t *testing.T) {
	s, hub := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := analyzeAndWait(t, ts, hub, map[string]any{"path": testProjectDir(t)})

	resp, err := http.Get(ts.URL + "/api/project/" + id + "/graph")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var graph struct {
		Nodes []struct {
			ID    string `json:"id"`
			Color string `json:"color"`
		} `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"edges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&graph); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(graph.Nodes) != 3 || len(graph.Edges) != 2 {
		t.Fatalf("graph=%+v", graph)
	}
	if graph.Nodes[0].Color != "#3776ab" {
		t.Fatalf("color=%s", graph.Nodes[0].Color)
	}
}

func TestGetFile(t *testing.T) {
	s, hub := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := analyzeAndWait(t, ts, hub, map[string]any{"path": testProjectDir(t)})

	resp, err := http.Get(ts.URL + "/api/project/" + id + "/file/sub/extra.py")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var fr struct {
		Path   string `json:"path"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		t.Fatal(err)
	}
	if fr.Path != "sub/extra.py" || fr.Status != "success" {
		t.Fatalf("fr=%+v", fr)
	}

	resp2, err := http.Get(ts.URL + "/api/project/" + id + "/file/missing.py")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", resp2.StatusCode)
	}
}

func TestChat(t *testing.T) {
	s, hub := newTestServer(t, true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := analyzeAndWait(t, ts, hub, map[string]any{"path": testProjectDir(t)})

	raw, _ := json.Marshal(map[string]any{"project_id": id, "message": "what imports utils?"})
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Response != "fake answer" {
		t.Fatalf("response=%q", out.Response)
	}
}

func TestChat_UnknownProjectAndNoAI(t *testing.T) {
	s, _ := newTestServer(t, true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	raw := []byte(`{"project_id": "nope", "message": "hi"}`)
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	noAI, _ := newTestServer(t, false)
	ts2 := httptest.NewServer(noAI.Handler())
	defer ts2.Close()
	resp2, err := http.Post(ts2.URL+"/api/chat", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", resp2.StatusCode)
	}
}

func TestRunAnalysis_SerializesSameProject(t *testing.T) {
	s, _ := newTestServer(t, false)
	ctx := context.Background()

	if !s.acquire(ctx, "p1") {
		t.Fatal("first acquire should succeed")
	}
	got := make(chan bool, 1)
	go func() { got <- s.acquire(ctx, "p1") }()
	select {
	case <-got:
		t.Fatal("second build for the same project started while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	// a different project is not blocked
	if !s.acquire(ctx, "p2") {
		t.Fatal("distinct project should acquire immediately")
	}
	s.release("p2")

	s.release("p1")
	select {
	case ok := <-got:
		if !ok {
			t.Fatal("second acquire should succeed after release")
		}
	case <-time.After(time.Second):
		t.Fatal("second acquire never woke up")
	}
	s.release("p1")

	// waiters give up when their context ends
	if !s.acquire(ctx, "p3") {
		t.Fatal("acquire p3")
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if s.acquire(cctx, "p3") {
		t.Fatal("canceled waiter should not acquire")
	}
	s.release("p3")
}

func TestRunAnalysis_ConcurrentSameID(t *testing.T) {
	s, _ := newTestServer(t, false)
	root := testProjectDir(t)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunAnalysis(context.Background(), "proj", root, nil, false)
		}()
	}
	wg.Wait()

	pa, _, ok := s.lookup("proj")
	if !ok {
		t.Fatal("project missing after concurrent runs")
	}
	if pa.Statistics.TotalFiles != 3 {
		t.Fatalf("stats=%+v", pa.Statistics)
	}
}

func TestAnalyzeWithAI_FillsFileSummaries(t *testing.T) {
	s, hub := newTestServer(t, true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	root := testProjectDir(t)
	id := analyzeAndWait(t, ts, hub, map[string]any{"path": root, "ai": true})

	resp, err := http.Get(ts.URL + "/api/project/" + id + "/file/utils.py")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var fr struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		t.Fatal(err)
	}
	if fr.Summary != "fake answer" {
		t.Fatalf("summary=%q", fr.Summary)
	}

	resp2, err := http.Get(ts.URL + "/api/project/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var proj struct {
		Architecture string `json:"architecture"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&proj); err != nil {
		t.Fatal(err)
	}
	if proj.Architecture != "fake answer" {
		t.Fatalf("architecture=%q", proj.Architecture)
	}
}

func TestListRuns(t *testing.T) {
	s, hub := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := analyzeAndWait(t, ts, hub, map[string]any{"path": testProjectDir(t)})

	resp, err := http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var runs []runstore.Run
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != id || runs[0].TotalFiles != 3 {
		t.Fatalf("runs=%+v", runs)
	}
}

func TestWebSocket_StreamsProgress(t *testing.T) {
	s, _ := newTestServer(t, false)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var hello events.Event
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "connected" {
		t.Fatalf("hello=%+v", hello)
	}

	root := testProjectDir(t)
	raw, _ := json.Marshal(map[string]any{"path": root})
	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	sawProgress := false
	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var ev events.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		switch ev.Type {
		case events.TypeProgress:
			sawProgress = true
		case events.TypeComplete:
			if !sawProgress {
				t.Fatal("completed without progress events")
			}
			return
		case events.TypeError:
			t.Fatalf("analysis error: %s", ev.Error)
		}
	}
}

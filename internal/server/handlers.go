package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cartograph/internal/batch"
	"cartograph/internal/cache/runstore"
	"cartograph/internal/depgraph"
	"cartograph/internal/events"
	"cartograph/internal/summarizer"
	"cartograph/internal/types"
	"cartograph/internal/viz"
)

type analyzeRequest struct {
	Path    string   `json:"path"`
	Exclude []string `json:"exclude"`
	AI      bool     `json:"ai"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	info, err := os.Stat(req.Path)
	if req.Path == "" || err != nil || !info.IsDir() {
		writeError(w, http.StatusBadRequest, "invalid project path")
		return
	}

	projectID := newProjectID()
	go s.runAnalysis(context.Background(), projectID, req)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"project_id": projectID,
		"status":     "started",
		"message":    "Analysis started. Listen to WebSocket for progress.",
	})
}

// RunAnalysis executes the pipeline for root under a caller-chosen project
// id. The watch loop uses it to refresh a project in place.
func (s *Server) RunAnalysis(ctx context.Context, projectID, root string, excludes []string, ai bool) {
	s.runAnalysis(ctx, projectID, analyzeRequest{Path: root, Exclude: excludes, AI: ai})
}

// runAnalysis executes the full pipeline for one request and publishes
// progress on the hub. Any failure becomes a terminal error event. Runs for
// the same project id are serialized so a stale build cannot overwrite a
// fresher one.
func (s *Server) runAnalysis(ctx context.Context, projectID string, req analyzeRequest) {
	if !s.acquire(ctx, projectID) {
		return
	}
	defer s.release(projectID)

	start := time.Now()

	pa, err := s.analyzer.AnalyzeProject(ctx, req.Path, batch.Options{Excludes: req.Exclude})
	if err != nil {
		log.Printf("server: analyze %s: %v", req.Path, err)
		s.hub.Error(err.Error())
		return
	}

	s.hub.Progress(events.StageDependencies, "Building dependency graph...")
	graph := depgraph.Build(pa.SuccessfulFacts())

	s.hub.Progress(events.StageVisualization, "Generating visualizations...")
	vgraph := viz.Build(pa, graph, viz.LayoutSpring)

	architecture := ""
	if req.AI && s.summ != nil {
		s.hub.Progress(events.StageAI, "Generating AI summaries...")
		s.summarizeFiles(ctx, req.Path, pa)
		architecture, err = s.summ.Architecture(ctx, pa, graph)
		if err != nil {
			architecture = "AI analysis unavailable: " + err.Error()
		}
	}

	s.cache.Put(projectID, pa)
	s.mu.Lock()
	s.meta[projectID] = projectMeta{
		Name:         filepath.Base(req.Path),
		Architecture: architecture,
	}
	s.mu.Unlock()

	if err := s.runs.Record(runstore.Run{
		ID:          projectID,
		ProjectName: filepath.Base(req.Path),
		Root:        req.Path,
		StartedAt:   start.UTC(),
		DurationMS:  time.Since(start).Milliseconds(),
		TotalFiles:  pa.Statistics.TotalFiles,
		Successful:  pa.Statistics.Successful,
		Failed:      pa.Statistics.Failed,
	}); err != nil {
		log.Printf("server: record run %s: %v", projectID, err)
	}

	graphURL := ""
	if s.artifacts != nil {
		if raw, err := json.Marshal(vgraph); err == nil {
			if err := s.artifacts.Put(ctx, projectID, "graph.json", "application/json", raw); err != nil {
				log.Printf("server: upload graph for %s: %v", projectID, err)
			} else if u, err := s.artifacts.URL(ctx, projectID, "graph.json"); err == nil {
				graphURL = u
			}
		}
	}

	s.hub.Publish(events.Event{Type: events.TypeComplete, ProjectID: projectID, GraphURL: graphURL})
}

// summarizeFiles fills per-file AI summaries in place. A failed summary
// leaves that file's field empty and never aborts the run.
func (s *Server) summarizeFiles(ctx context.Context, root string, pa *types.ProjectAnalysis) {
	for i := range pa.Files {
		fr := &pa.Files[i]
		if fr.Status != types.StatusSuccess {
			continue
		}
		src, err := os.ReadFile(filepath.Join(root, fr.Path))
		if err != nil {
			log.Printf("server: read %s: %v", fr.Path, err)
			continue
		}
		summary, err := s.summ.FileSummary(ctx, fr.Path, src, fr.Facts)
		if err != nil {
			log.Printf("server: summarize %s: %v", fr.Path, err)
			continue
		}
		fr.Summary = summary
	}
}

func (s *Server) lookup(projectID string) (*types.ProjectAnalysis, projectMeta, bool) {
	pa, ok := s.cache.Get(projectID)
	if !ok {
		return nil, projectMeta{}, false
	}
	s.mu.RLock()
	meta := s.meta[projectID]
	s.mu.RUnlock()
	return pa, meta, true
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID    string           `json:"id"`
		Name  string           `json:"name"`
		Stats types.Statistics `json:"stats"`
	}
	out := make([]entry, 0)
	for _, id := range s.cache.Keys() {
		pa, meta, ok := s.lookup(id)
		if !ok {
			continue
		}
		out = append(out, entry{ID: id, Name: meta.Name, Stats: pa.Statistics})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.Recent(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pa, meta, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	graph := depgraph.Build(pa.SuccessfulFacts())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           id,
		"name":         meta.Name,
		"analysis":     pa,
		"dependencies": graph,
		"architecture": meta.Architecture,
	})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pa, _, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	graph := depgraph.Build(pa.SuccessfulFacts())
	writeJSON(w, http.StatusOK, viz.Build(pa, graph, viz.LayoutSpring))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rel := r.PathValue("path")
	pa, _, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	for _, fr := range pa.Files {
		if fr.Path == rel || strings.HasSuffix(fr.Path, "/"+rel) {
			writeJSON(w, http.StatusOK, fr)
			return
		}
	}
	writeError(w, http.StatusNotFound, "file not found")
}

type chatRequest struct {
	ProjectID string            `json:"project_id"`
	Message   string            `json:"message"`
	History   []summarizer.Turn `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.summ == nil {
		writeError(w, http.StatusServiceUnavailable, "AI is not configured")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	pa, _, ok := s.lookup(req.ProjectID)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	graph := depgraph.Build(pa.SuccessfulFacts())
	answer, err := s.summ.Chat(r.Context(), pa, graph, req.History, req.Message)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

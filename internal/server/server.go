// Package server exposes project analysis over HTTP: JSON endpoints for
// starting and reading analyses, a chat endpoint, and a WebSocket stream of
// progress events.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"cartograph/internal/artifact"
	"cartograph/internal/batch"
	analysiscache "cartograph/internal/cache/analysis"
	"cartograph/internal/cache/runstore"
	"cartograph/internal/events"
	"cartograph/internal/summarizer"
)

// Server wires the analysis pipeline to HTTP. Summarizer, run store, and
// artifact store are optional.
type Server struct {
	analyzer  *batch.Analyzer
	cache     *analysiscache.Cache
	hub       *events.Hub
	summ      *summarizer.Summarizer
	runs      *runstore.Store
	artifacts *artifact.Store

	mu      sync.RWMutex
	meta    map[string]projectMeta
	running map[string]chan struct{}
}

type projectMeta struct {
	Name         string
	Architecture string
}

func New(analyzer *batch.Analyzer, cache *analysiscache.Cache, hub *events.Hub, summ *summarizer.Summarizer, runs *runstore.Store, artifacts *artifact.Store) *Server {
	return &Server{
		analyzer:  analyzer,
		cache:     cache,
		hub:       hub,
		summ:      summ,
		runs:      runs,
		artifacts: artifacts,
		meta:      make(map[string]projectMeta),
		running:   make(map[string]chan struct{}),
	}
}

// acquire blocks until no other build for projectID is in flight, so builds
// of the same project run one at a time and a refresh cannot race an
// earlier run for the cache slot. Distinct ids never block each other.
// Returns false when ctx ends while waiting.
func (s *Server) acquire(ctx context.Context, projectID string) bool {
	for {
		s.mu.Lock()
		done, busy := s.running[projectID]
		if !busy {
			s.running[projectID] = make(chan struct{})
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return false
		}
	}
}

func (s *Server) release(projectID string) {
	s.mu.Lock()
	done := s.running[projectID]
	delete(s.running, projectID)
	s.mu.Unlock()
	close(done)
}

// Handler returns the full HTTP handler with CORS and h2c applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/project/{id}", s.handleGetProject)
	mux.HandleFunc("GET /api/project/{id}/graph", s.handleGetGraph)
	mux.HandleFunc("GET /api/project/{id}/file/{path...}", s.handleGetFile)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /ws", s.handleWS)

	return h2c.NewHandler(withCORS(mux), &http2.Server{})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newProjectID() string { return uuid.NewString() }

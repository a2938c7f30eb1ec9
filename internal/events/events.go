// Package events carries analysis progress notifications from the batch
// orchestrator to whoever cares to listen. Publishing never blocks: slow or
// absent subscribers drop events rather than stall the batch.
package events

import (
	"context"
	"sync"
)

// Stages emitted during a batch run, in order.
const (
	StageScanning      = "scanning"
	StageDependencies  = "dependencies"
	StageVisualization = "visualization"
	StageAI            = "ai"
)

// Terminal event types.
const (
	TypeProgress = "analysis_progress"
	TypeComplete = "analysis_complete"
	TypeError    = "analysis_error"
)

// Event is one progress notification.
type Event struct {
	Type      string `json:"type"`
	Stage     string `json:"stage,omitempty"`
	Message   string `json:"message,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	// GraphURL links the uploaded graph artifact when object storage is
	// configured.
	GraphURL string `json:"graph_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Hub fans events out to subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan Event]struct{}{}}
}

// Subscribe registers a buffered listener that is removed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Publish delivers ev to every subscriber, dropping it for any whose buffer
// is full.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Progress publishes a stage notification.
func (h *Hub) Progress(stage, message string) {
	h.Publish(Event{Type: TypeProgress, Stage: stage, Message: message})
}

// Complete publishes the terminal success event for a project.
func (h *Hub) Complete(projectID string) {
	h.Publish(Event{Type: TypeComplete, ProjectID: projectID})
}

// Error publishes the terminal failure event.
func (h *Hub) Error(msg string) {
	h.Publish(Event{Type: TypeError, Error: msg})
}

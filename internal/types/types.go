// Package types holds the shared value types passed between the fact
// extractor, the batch orchestrator, and the dependency graph builder.
package types

import "time"

// FileFacts is the structural information extracted from one source file.
// Produced once per analysis run and immutable afterwards; a re-analysis of
// the same path supersedes the whole record.
type FileFacts struct {
	// Path is project-relative, forward-slash normalized.
	Path string `json:"path"`
	// Imports are the raw import strings in source order (relative paths,
	// dotted module paths, or external package names).
	Imports []string `json:"imports"`
	// Definitions are top-level symbol names declared in the file.
	Definitions []string `json:"definitions"`
	// Calls are symbol names invoked in the file. Statistics only; they
	// never contribute graph edges.
	Calls []string `json:"calls"`
}

// FileResult wraps FileFacts with per-file metadata and extraction status.
type FileResult struct {
	Path     string    `json:"path"`
	FileName string    `json:"file_name"`
	Size     int64     `json:"size"`
	Ext      string    `json:"ext"`
	Status   string    `json:"status"` // "success" or "error"
	Error    string    `json:"error,omitempty"`
	Facts    FileFacts `json:"facts"`
	// Summary holds AI-generated prose when per-file summarization ran.
	Summary string `json:"summary,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Statistics are the project-wide aggregate counters.
type Statistics struct {
	TotalFiles       int `json:"total_files"`
	Successful       int `json:"successful"`
	Failed           int `json:"failed"`
	TotalImports     int `json:"total_imports"`
	TotalDefinitions int `json:"total_definitions"`
	TotalCalls       int `json:"total_calls"`
}

// ProjectAnalysis is the output of one batch run over a project root.
type ProjectAnalysis struct {
	ProjectPath string       `json:"project_path"`
	AnalyzedAt  time.Time    `json:"analyzed_at"`
	Statistics  Statistics   `json:"statistics"`
	Files       []FileResult `json:"files"`
}

// SuccessfulFacts returns the facts of all files that extracted cleanly.
func (p *ProjectAnalysis) SuccessfulFacts() []FileFacts {
	out := make([]FileFacts, 0, len(p.Files))
	for _, f := range p.Files {
		if f.Status == StatusSuccess {
			out = append(out, f.Facts)
		}
	}
	return out
}

// FileByPath returns the result for the given project-relative path.
func (p *ProjectAnalysis) FileByPath(path string) (FileResult, bool) {
	for _, f := range p.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileResult{}, false
}

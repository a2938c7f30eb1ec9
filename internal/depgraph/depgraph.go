// Package depgraph builds the project-wide dependency graph from per-file
// facts. It is pure computation: resolution only consults the set of known
// project files, never the filesystem.
package depgraph

import (
	"sort"

	"cartograph/internal/types"
)

// Edge is one resolved import relationship. From imports To.
type Edge struct {
	From string `json:"source"`
	To   string `json:"target"`
	// Import is the raw import string that produced the edge.
	Import string `json:"import_statement,omitempty"`
}

// Hub pairs a file with the number of files importing it.
type Hub struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Stats are the derived counters of one graph build.
type Stats struct {
	TotalFiles              int `json:"total_files"`
	TotalDependencies       int `json:"total_dependencies"`
	FilesWithImports        int `json:"files_with_imports"`
	FilesBeingImported      int `json:"files_being_imported"`
	CircularDependencyCount int `json:"circular_dependency_count"`
	OrphanedFileCount       int `json:"orphaned_file_count"`
	UnresolvedImports       int `json:"unresolved_imports"`
}

// Analysis is the full output of Build.
type Analysis struct {
	// Nodes is the sorted set of project files.
	Nodes []string `json:"nodes"`
	// Edges is the deduplicated edge set, ordered by (From, To).
	Edges []Edge `json:"edges"`
	// InDegree and OutDegree are per-node resolved counts.
	InDegree  map[string]int `json:"in_degree"`
	OutDegree map[string]int `json:"out_degree"`
	// Unresolved maps each file to its imports that matched no project
	// file (external packages, typos, excluded files).
	Unresolved map[string][]string `json:"unresolved"`
	// Hubs is every node ranked by in-degree descending, path ascending.
	Hubs []Hub `json:"hubs"`
	// Orphans are nodes with zero resolved edges in either direction.
	Orphans []string `json:"orphans"`
	// Cycles are the simple cycles, each starting at its lexically
	// smallest node and listed once (no rotations).
	Cycles [][]string `json:"cycles"`
	Stats  Stats      `json:"statistics"`
}

// Build constructs the dependency graph for the given facts. An empty input
// yields an empty analysis, not an error. Duplicate imports collapse to one
// edge and self-imports are discarded. When the input carries several entries
// for one path the last one supersedes the rest.
func Build(facts []types.FileFacts) *Analysis {
	a := &Analysis{
		InDegree:   map[string]int{},
		OutDegree:  map[string]int{},
		Unresolved: map[string][]string{},
	}

	latest := make(map[string]types.FileFacts, len(facts))
	for _, f := range facts {
		latest[f.Path] = f
	}
	ordered := make([]types.FileFacts, 0, len(latest))
	for _, f := range latest {
		ordered = append(ordered, f)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	known := make(map[string]struct{}, len(ordered))
	for _, f := range ordered {
		known[f.Path] = struct{}{}
		a.Nodes = append(a.Nodes, f.Path)
		a.InDegree[f.Path] = 0
		a.OutDegree[f.Path] = 0
	}

	seen := map[Edge]struct{}{}
	for _, f := range ordered {
		for _, imp := range f.Imports {
			target, ok := Resolve(imp, f.Path, known)
			if !ok {
				a.Unresolved[f.Path] = append(a.Unresolved[f.Path], imp)
				a.Stats.UnresolvedImports++
				continue
			}
			if target == f.Path {
				continue
			}
			key := Edge{From: f.Path, To: target}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			a.Edges = append(a.Edges, Edge{From: f.Path, To: target, Import: imp})
			a.OutDegree[f.Path]++
			a.InDegree[target]++
		}
	}
	sort.Slice(a.Edges, func(i, j int) bool {
		if a.Edges[i].From != a.Edges[j].From {
			return a.Edges[i].From < a.Edges[j].From
		}
		return a.Edges[i].To < a.Edges[j].To
	})

	a.Hubs = make([]Hub, 0, len(a.Nodes))
	for _, n := range a.Nodes {
		a.Hubs = append(a.Hubs, Hub{Path: n, Count: a.InDegree[n]})
		if a.InDegree[n] == 0 && a.OutDegree[n] == 0 {
			a.Orphans = append(a.Orphans, n)
		}
	}
	sort.SliceStable(a.Hubs, func(i, j int) bool {
		if a.Hubs[i].Count != a.Hubs[j].Count {
			return a.Hubs[i].Count > a.Hubs[j].Count
		}
		return a.Hubs[i].Path < a.Hubs[j].Path
	})

	a.Cycles = simpleCycles(a.Nodes, a.Edges)

	a.Stats.TotalFiles = len(a.Nodes)
	a.Stats.TotalDependencies = len(a.Edges)
	for _, n := range a.Nodes {
		if a.OutDegree[n] > 0 {
			a.Stats.FilesWithImports++
		}
		if a.InDegree[n] > 0 {
			a.Stats.FilesBeingImported++
		}
	}
	a.Stats.CircularDependencyCount = len(a.Cycles)
	a.Stats.OrphanedFileCount = len(a.Orphans)
	return a
}

// TopHubs returns the first n ranked hubs. The ranking is a display view;
// n is a limit, not a graph property.
func (a *Analysis) TopHubs(n int) []Hub {
	if n < 0 {
		n = 0
	}
	if n > len(a.Hubs) {
		n = len(a.Hubs)
	}
	return a.Hubs[:n]
}

// Package viz turns a dependency analysis into renderable graph data and
// exports it as JSON or a self-contained interactive HTML page.
package viz

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"

	"cartograph/internal/depgraph"
	"cartograph/internal/layout"
	"cartograph/internal/types"
)

// Layout kinds accepted by Build.
const (
	LayoutSpring   = "spring"
	LayoutCircular = "circular"
)

type Node struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
	Color     string  `json:"color"`
	Functions int     `json:"functions"`
	Imports   int     `json:"imports"`
}

type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeColor maps a file's extension to its display color.
func NodeColor(p string) string {
	switch path.Ext(p) {
	case ".py":
		return "#3776ab"
	case ".js":
		return "#f7df1e"
	case ".ts":
		return "#3178c6"
	case ".jsx", ".tsx":
		return "#61dafb"
	default:
		return "#888888"
	}
}

// NodeSize scales with the number of functions defined in the file.
func NodeSize(functions int) float64 {
	size := float64(functions*10 + 20)
	if size > 60 {
		size = 60
	}
	return size
}

// Build lays out the graph and attaches per-node display attributes.
// Unknown layout kinds fall back to spring.
func Build(pa *types.ProjectAnalysis, g *depgraph.Analysis, layoutKind string) *Graph {
	var pos map[string]layout.Point
	switch layoutKind {
	case LayoutCircular:
		pos = layout.Circular(g.Nodes)
	default:
		edges := make([]layout.Edge, len(g.Edges))
		for i, e := range g.Edges {
			edges[i] = layout.Edge{From: e.From, To: e.To}
		}
		pos = layout.Spring(g.Nodes, edges, layout.Options{Seed: 42})
	}

	out := &Graph{Nodes: make([]Node, 0, len(g.Nodes)), Edges: make([]Edge, 0, len(g.Edges))}
	for _, id := range g.Nodes {
		var functions, imports int
		if fr, ok := pa.FileByPath(id); ok && fr.Status == types.StatusSuccess {
			functions = len(fr.Facts.Definitions)
			imports = len(fr.Facts.Imports)
		}
		p := pos[id]
		out.Nodes = append(out.Nodes, Node{
			ID:        id,
			Label:     path.Base(id),
			X:         p.X,
			Y:         p.Y,
			Size:      NodeSize(functions),
			Color:     NodeColor(id),
			Functions: functions,
			Imports:   imports,
		})
	}
	for _, e := range g.Edges {
		s, t := pos[e.From], pos[e.To]
		out.Edges = append(out.Edges, Edge{
			Source: e.From, Target: e.To,
			X0: s.X, Y0: s.Y, X1: t.X, Y1: t.Y,
		})
	}
	return out
}

// jsonExport is the on-disk JSON shape: graph, extension legend, and the
// derived statistics.
type jsonExport struct {
	Nodes      []Node            `json:"nodes"`
	Edges      []Edge            `json:"edges"`
	Legend     map[string]string `json:"legend"`
	Statistics depgraph.Stats    `json:"statistics"`
}

// WriteJSON writes the graph and statistics to outPath, creating parent
// directories as needed.
func WriteJSON(outPath string, g *Graph, stats depgraph.Stats) error {
	raw, err := json.MarshalIndent(jsonExport{Nodes: g.Nodes, Edges: g.Edges, Legend: Legend(g), Statistics: stats}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, append(raw, '\n'), 0o644)
}

//go:embed graph.html.tmpl
var graphTemplate string

var htmlTmpl = template.Must(template.New("graph").Parse(graphTemplate))

// WriteHTML renders a standalone interactive page for the graph.
func WriteHTML(outPath, projectName string, g *Graph) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return htmlTmpl.Execute(f, struct {
		Title string
		Data  template.JS
	}{
		Title: fmt.Sprintf("Code Dependency Graph: %s", projectName),
		Data:  template.JS(raw),
	})
}

// Legend lists the extension colors present in the graph, stable order.
func Legend(g *Graph) map[string]string {
	seen := map[string]string{}
	for _, n := range g.Nodes {
		ext := path.Ext(n.ID)
		if ext == "" {
			ext = "other"
		}
		seen[ext] = n.Color
	}
	return seen
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cartograph/internal/artifact"
	"cartograph/internal/batch"
	"cartograph/internal/cache/runstore"
	"cartograph/internal/cache/snapshot"
	"cartograph/internal/depgraph"
	"cartograph/internal/llm"
	"cartograph/internal/parser"
	"cartograph/internal/scan"
	"cartograph/internal/summarizer"
	"cartograph/internal/types"
	"cartograph/internal/viz"
)

const cacheDirName = ".cartograph"

func excludes() []string {
	return scan.ParseExcludeCSV(flagExclude)
}

func openSnapshots() *snapshot.Store {
	if flagNoCache {
		return nil
	}
	s, err := snapshot.Open("")
	if err != nil {
		log.Printf("snapshot cache unavailable: %v", err)
		return nil
	}
	return s
}

// runSingleFile extracts one file and asks Gemini to explain it.
func runSingleFile(ctx context.Context, path string) error {
	fmt.Printf("Analyzing: %s\n\n", path)

	extractor := parser.New()
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	facts, err := extractor.ExtractSource(ctx, filepath.Base(path), src)
	if err != nil {
		return err
	}
	fmt.Printf("  imports:     %d\n", len(facts.Imports))
	fmt.Printf("  definitions: %d\n", len(facts.Definitions))
	fmt.Printf("  calls:       %d\n\n", len(facts.Calls))

	client, err := llm.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("AI summary requires Gemini: %w", err)
	}
	defer client.Close()

	fmt.Println("Generating AI summary...")
	summary, err := summarizer.New(client).FileSummary(ctx, path, src, facts)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(summary)
	return nil
}

// runBatch analyzes the whole tree and prints aggregate statistics.
func runBatch(ctx context.Context, root string) error {
	fmt.Printf("Batch analysis: %s\n", root)
	if flagExclude != "" {
		fmt.Printf("Excluding: %s\n", flagExclude)
	}
	fmt.Println()

	snaps := openSnapshots()
	defer snaps.Close()

	analyzer := batch.New(parser.New(), snaps, nil)
	pa, err := analyzer.AnalyzeProject(ctx, root, batch.Options{
		Excludes: excludes(),
		NoCache:  flagNoCache,
	})
	if err != nil {
		return err
	}
	printStats(pa)
	printTopFiles(pa)

	if !flagNoCache {
		out := filepath.Join(root, cacheDirName, "analysis.json")
		if err := writeAnalysisJSON(out, pa); err != nil {
			log.Printf("cache analysis: %v", err)
		} else {
			fmt.Printf("\nResults saved to: %s\n", out)
		}
	}
	recordRun(pa)
	return nil
}

// runVisualize analyzes, builds the graph, and exports it.
func runVisualize(ctx context.Context, root string) error {
	fmt.Printf("Visualizing: %s\n\n", root)

	snaps := openSnapshots()
	defer snaps.Close()

	analyzer := batch.New(parser.New(), snaps, nil)
	pa, err := analyzer.AnalyzeProject(ctx, root, batch.Options{
		Excludes: excludes(),
		NoCache:  flagNoCache,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Analyzed %d files (%d failed)\n\n", pa.Statistics.Successful, pa.Statistics.Failed)

	graph := depgraph.Build(pa.SuccessfulFacts())
	fmt.Println(graph.Summary())

	format := strings.ToLower(flagFormat)
	out := flagOutput
	if out == "" {
		out = "dependency_graph." + format
	}
	vgraph := viz.Build(pa, graph, viz.LayoutSpring)
	printLegend(vgraph)
	switch format {
	case "json":
		err = viz.WriteJSON(out, vgraph, graph.Stats)
	case "html":
		err = viz.WriteHTML(out, filepath.Base(root), vgraph)
	default:
		return fmt.Errorf("unsupported format %q (want html or json)", flagFormat)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Graph saved to: %s\n", out)
	uploadArtifact(ctx, filepath.Base(root), out)

	if flagArchitecture {
		client, err := llm.NewFromEnv(ctx)
		if err != nil {
			return fmt.Errorf("architecture analysis requires Gemini: %w", err)
		}
		defer client.Close()

		fmt.Println("\nGenerating AI architecture analysis...")
		arch, err := summarizer.New(client).Architecture(ctx, pa, graph)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(arch)

		archOut := strings.TrimSuffix(out, filepath.Ext(out)) + "_architecture.txt"
		if err := os.WriteFile(archOut, []byte(arch+"\n"), 0o644); err != nil {
			return err
		}
		fmt.Printf("\nArchitecture analysis saved to: %s\n", archOut)
	}
	recordRun(pa)
	return nil
}

func printStats(pa *types.ProjectAnalysis) {
	s := pa.Statistics
	fmt.Printf("Files:       %d (%d ok, %d failed)\n", s.TotalFiles, s.Successful, s.Failed)
	fmt.Printf("Imports:     %d\n", s.TotalImports)
	fmt.Printf("Definitions: %d\n", s.TotalDefinitions)
	fmt.Printf("Calls:       %d\n", s.TotalCalls)
}

func printTopFiles(pa *types.ProjectAnalysis) {
	ok := make([]types.FileResult, 0, len(pa.Files))
	for _, f := range pa.Files {
		if f.Status == types.StatusSuccess {
			ok = append(ok, f)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return len(ok[i].Facts.Definitions) > len(ok[j].Facts.Definitions)
	})
	if len(ok) > 10 {
		ok = ok[:10]
	}
	fmt.Println("\nTop files by function count:")
	for i, f := range ok {
		fmt.Printf("  %2d. %-50s (%d functions)\n", i+1, f.Path, len(f.Facts.Definitions))
	}
}

func printLegend(g *viz.Graph) {
	legend := viz.Legend(g)
	exts := make([]string, 0, len(legend))
	for ext := range legend {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	fmt.Println("Legend:")
	for _, ext := range exts {
		fmt.Printf("  %-6s %s\n", ext, legend[ext])
	}
	fmt.Println()
}

func writeAnalysisJSON(out string, pa *types.ProjectAnalysis) error {
	raw, err := json.MarshalIndent(pa, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, append(raw, '\n'), 0o644)
}

func recordRun(pa *types.ProjectAnalysis) {
	store := runstore.NewFromEnv(filepath.Join(pa.ProjectPath, cacheDirName, "runs.json"))
	defer store.Close()
	err := store.Record(runstore.Run{
		ID:          fmt.Sprintf("%s-%d", filepath.Base(pa.ProjectPath), pa.AnalyzedAt.UnixNano()),
		ProjectName: filepath.Base(pa.ProjectPath),
		Root:        pa.ProjectPath,
		StartedAt:   pa.AnalyzedAt,
		TotalFiles:  pa.Statistics.TotalFiles,
		Successful:  pa.Statistics.Successful,
		Failed:      pa.Statistics.Failed,
	})
	if err != nil {
		log.Printf("record run: %v", err)
	}
}

func uploadArtifact(ctx context.Context, runID, path string) {
	store, err := artifact.New(artifact.ConfigFromEnv())
	if err != nil {
		log.Printf("artifact store: %v", err)
		return
	}
	if store == nil {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	contentType := "text/html"
	if strings.HasSuffix(path, ".json") {
		contentType = "application/json"
	}
	if err := store.Put(ctx, runID, filepath.Base(path), contentType, raw); err != nil {
		log.Printf("upload %s: %v", path, err)
		return
	}
	fmt.Printf("Uploaded %s to object storage\n", filepath.Base(path))
}

// Package summarizer turns extracted facts and graph analysis into prompts
// for the model and returns its prose. All prompt assembly lives here so the
// llm package stays a dumb transport.
package summarizer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cartograph/internal/depgraph"
	"cartograph/internal/llm"
	"cartograph/internal/types"
)

const (
	maxCodeBytes   = 32 * 1024
	maxChatFiles   = 40
	maxChatHistory = 10
)

type Summarizer struct {
	client llm.Client
}

func New(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

// FileSummary explains one file from its source and extracted facts.
func (s *Summarizer) FileSummary(ctx context.Context, relPath string, code []byte, facts types.FileFacts) (string, error) {
	if len(code) > maxCodeBytes {
		code = code[:maxCodeBytes]
	}
	var b strings.Builder
	b.WriteString(fileSystemPrompt)
	b.WriteString("\n\nAnalyze this code file and provide a structured summary.\n\n")
	fmt.Fprintf(&b, "**File:** %s\n\n", relPath)
	b.WriteString("**Structural Analysis (extracted by parser):**\n\n")
	b.WriteString("Imports detected:\n")
	writeBullets(&b, facts.Imports)
	b.WriteString("\nFunction definitions:\n")
	writeBullets(&b, facts.Definitions)
	b.WriteString("\nFunction calls made:\n")
	writeBullets(&b, facts.Calls)
	fmt.Fprintf(&b, "\n**Full Code Content:**\n```\n%s\n```\n", code)
	b.WriteString(fileFormatInstructions)

	return s.client.GenerateText(ctx, b.String())
}

// Architecture explains the whole project from its dependency analysis.
func (s *Summarizer) Architecture(ctx context.Context, pa *types.ProjectAnalysis, graph *depgraph.Analysis) (string, error) {
	var b strings.Builder
	b.WriteString(archSystemPrompt)
	b.WriteString("\n\nAnalyze this project's architecture based on the dependency analysis.\n\n")
	fmt.Fprintf(&b, "**Project:** %s\n\n", path.Base(pa.ProjectPath))
	b.WriteString("**Project Statistics:**\n")
	fmt.Fprintf(&b, "- Total Files: %d\n", pa.Statistics.TotalFiles)
	fmt.Fprintf(&b, "- Total Functions: %d\n", pa.Statistics.TotalDefinitions)
	fmt.Fprintf(&b, "- Total Dependencies: %d\n", graph.Stats.TotalDependencies)
	fmt.Fprintf(&b, "- Files with Imports: %d\n", graph.Stats.FilesWithImports)
	fmt.Fprintf(&b, "- Circular Dependencies: %d\n\n", len(graph.Cycles))

	b.WriteString("**Hub Files (Most Depended Upon):**\n")
	hubs := graph.TopHubs(5)
	if len(hubs) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, h := range hubs {
		fmt.Fprintf(&b, "  - %s (imported by %d files)\n", path.Base(h.Path), h.Count)
	}

	b.WriteString("\n**Orphaned Files (Entry Points or Unused):**\n")
	writeBaseBullets(&b, graph.Orphans, 5)

	b.WriteString("\n**Circular Dependencies Detected:**\n")
	if len(graph.Cycles) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, cycle := range graph.Cycles {
		if i == 3 {
			break
		}
		names := make([]string, len(cycle))
		for j, f := range cycle {
			names[j] = path.Base(f)
		}
		fmt.Fprintf(&b, "  - %s\n", strings.Join(names, " -> "))
	}

	b.WriteString("\n**Sample Key Files:**\n")
	for i, h := range hubs {
		if i == 3 {
			break
		}
		fr, ok := pa.FileByPath(h.Path)
		if !ok || fr.Status != types.StatusSuccess {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n  Imports: %s\n  Functions: %s\n",
			path.Base(h.Path),
			strings.Join(head(fr.Facts.Imports, 5), ", "),
			strings.Join(head(fr.Facts.Definitions, 5), ", "))
	}
	b.WriteString(archFormatInstructions)

	return s.client.GenerateText(ctx, b.String())
}

// Turn is one prior chat exchange.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat answers a question about an analyzed project, grounding the model in
// the project's statistics and file inventory. History and file context are
// bounded so the prompt cannot grow without limit.
func (s *Summarizer) Chat(ctx context.Context, pa *types.ProjectAnalysis, graph *depgraph.Analysis, history []Turn, message string) (string, error) {
	var b strings.Builder
	b.WriteString(chatSystemPrompt)
	fmt.Fprintf(&b, "\n\n**Project:** %s\n", path.Base(pa.ProjectPath))
	fmt.Fprintf(&b, "Files analyzed: %d (%d failed). Functions: %d. Dependencies: %d. Cycles: %d.\n",
		pa.Statistics.TotalFiles, pa.Statistics.Failed, pa.Statistics.TotalDefinitions,
		graph.Stats.TotalDependencies, len(graph.Cycles))

	b.WriteString("\n**Files:**\n")
	for i, fr := range pa.Files {
		if i == maxChatFiles {
			fmt.Fprintf(&b, "  ... and %d more\n", len(pa.Files)-maxChatFiles)
			break
		}
		if fr.Status == types.StatusSuccess && len(fr.Facts.Definitions) > 0 {
			fmt.Fprintf(&b, "  - %s (defs: %s)\n", fr.Path, strings.Join(head(fr.Facts.Definitions, 5), ", "))
		} else {
			fmt.Fprintf(&b, "  - %s\n", fr.Path)
		}
	}

	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	if len(history) > 0 {
		b.WriteString("\n**Conversation so far:**\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
	}
	fmt.Fprintf(&b, "\n**Question:** %s\n", message)

	return s.client.GenerateText(ctx, b.String())
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}

func writeBaseBullets(b *strings.Builder, items []string, limit int) {
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for i, it := range items {
		if i == limit {
			break
		}
		fmt.Fprintf(b, "  - %s\n", path.Base(it))
	}
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

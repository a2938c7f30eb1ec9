package depgraph

import (
	"fmt"
	"path"
	"strings"
)

// Summary renders a human-readable digest of the analysis for CLI output.
func (a *Analysis) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("=", 72)

	fmt.Fprintf(&b, "%s\nDEPENDENCY ANALYSIS SUMMARY\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Total Files:          %d\n", a.Stats.TotalFiles)
	fmt.Fprintf(&b, "Total Dependencies:   %d\n", a.Stats.TotalDependencies)
	fmt.Fprintf(&b, "Files with Imports:   %d\n", a.Stats.FilesWithImports)
	fmt.Fprintf(&b, "Files Being Imported: %d\n", a.Stats.FilesBeingImported)
	fmt.Fprintf(&b, "Unresolved Imports:   %d\n", a.Stats.UnresolvedImports)

	if hubs := a.TopHubs(5); len(hubs) > 0 && hubs[0].Count > 0 {
		b.WriteString("\nHub Files (most imported):\n")
		for i, h := range hubs {
			if h.Count == 0 {
				break
			}
			fmt.Fprintf(&b, "  %d. %-50s (imported by %d files)\n", i+1, h.Path, h.Count)
		}
	}

	if len(a.Cycles) > 0 {
		fmt.Fprintf(&b, "\nCircular Dependencies Found: %d\n", len(a.Cycles))
		for i, cyc := range a.Cycles {
			if i == 3 {
				fmt.Fprintf(&b, "  ... and %d more\n", len(a.Cycles)-3)
				break
			}
			names := make([]string, 0, len(cyc)+1)
			for _, p := range cyc {
				names = append(names, path.Base(p))
			}
			names = append(names, path.Base(cyc[0]))
			fmt.Fprintf(&b, "  %d. %s\n", i+1, strings.Join(names, " -> "))
		}
	} else {
		b.WriteString("\nNo Circular Dependencies Found\n")
	}

	if len(a.Orphans) > 0 {
		fmt.Fprintf(&b, "\nOrphaned Files (no resolved edges): %d\n", len(a.Orphans))
		for i, p := range a.Orphans {
			if i == 5 {
				fmt.Fprintf(&b, "  ... and %d more\n", len(a.Orphans)-5)
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
		}
	}

	b.WriteString("\n" + rule + "\n")
	return b.String()
}

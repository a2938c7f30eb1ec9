// Command cartograph maps a codebase: it extracts structure from source
// files with tree-sitter, builds the import dependency graph, renders it,
// and optionally explains it with Gemini.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagBatch        bool
	flagVisualize    bool
	flagExclude      string
	flagNoCache      bool
	flagOutput       string
	flagFormat       string
	flagArchitecture bool
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "cartograph <path>",
		Short: "AI-powered repository navigator",
		Long: "Code Cartographer analyzes source files with tree-sitter, maps import\n" +
			"dependencies across a project, and uses Gemini to explain what it finds.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("path not found: %s", path)
			}
			switch {
			case flagVisualize:
				if !info.IsDir() {
					return fmt.Errorf("visualization requires a directory, got: %s", path)
				}
				return runVisualize(cmd.Context(), path)
			case flagBatch:
				if !info.IsDir() {
					return fmt.Errorf("batch mode requires a directory, got: %s", path)
				}
				return runBatch(cmd.Context(), path)
			default:
				if info.IsDir() {
					return fmt.Errorf("%s is a directory; use --batch or --visualize", path)
				}
				return runSingleFile(cmd.Context(), path)
			}
		},
	}
	root.Flags().BoolVar(&flagBatch, "batch", false, "analyze all files in a directory")
	root.Flags().BoolVar(&flagVisualize, "visualize", false, "generate a dependency graph visualization")
	root.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated directory names to exclude (e.g. \"tests,docs\")")
	root.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable snapshot caching of extraction results")
	root.Flags().StringVar(&flagOutput, "output", "", "output path for the visualization (default dependency_graph.<format>)")
	root.Flags().StringVar(&flagFormat, "format", "html", "visualization format: html or json")
	root.Flags().BoolVar(&flagArchitecture, "architecture", false, "include AI architecture analysis")

	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

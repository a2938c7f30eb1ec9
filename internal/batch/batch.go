// Package batch runs fact extraction across a whole project: scan the tree,
// extract every file on a bounded worker pool, and aggregate statistics.
// Individual file failures are recorded, never fatal.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"cartograph/internal/cache/snapshot"
	"cartograph/internal/events"
	"cartograph/internal/parser"
	"cartograph/internal/scan"
	"cartograph/internal/types"
)

// ErrNoFiles is returned when the scan finds nothing to analyze.
var ErrNoFiles = errors.New("no supported code files found in directory")

// Options tune one project run.
type Options struct {
	// Excludes are directory names skipped in addition to the defaults.
	Excludes []string
	// Workers bounds extraction concurrency. Zero means one per
	// available CPU.
	Workers int
	// NoCache forces re-extraction even when a snapshot matches.
	NoCache bool
}

// Analyzer orchestrates project-wide extraction. Snapshots and the event
// hub are optional.
type Analyzer struct {
	extractor *parser.Extractor
	snapshots *snapshot.Store
	hub       *events.Hub
}

func New(extractor *parser.Extractor, snapshots *snapshot.Store, hub *events.Hub) *Analyzer {
	return &Analyzer{extractor: extractor, snapshots: snapshots, hub: hub}
}

// AnalyzeProject scans root and extracts facts from every eligible file.
// Results keep scan order regardless of worker completion order.
func (a *Analyzer) AnalyzeProject(ctx context.Context, root string, opts Options) (*types.ProjectAnalysis, error) {
	a.hub.Progress(events.StageScanning, "Scanning project files...")

	files, err := scan.Dir(root, scan.Options{Excludes: opts.Excludes})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	log.Printf("batch: found %d code files under %s", len(files), root)

	workers := workerCount(opts.Workers, len(files))

	results := make([]types.FileResult, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.analyzeOne(ctx, root, files[i], opts.NoCache)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pa := &types.ProjectAnalysis{
		ProjectPath: root,
		AnalyzedAt:  time.Now().UTC(),
		Files:       results,
	}
	pa.Statistics.TotalFiles = len(files)
	for _, r := range results {
		if r.Status != types.StatusSuccess {
			pa.Statistics.Failed++
			continue
		}
		pa.Statistics.Successful++
		pa.Statistics.TotalImports += len(r.Facts.Imports)
		pa.Statistics.TotalDefinitions += len(r.Facts.Definitions)
		pa.Statistics.TotalCalls += len(r.Facts.Calls)
	}
	return pa, nil
}

func workerCount(requested, files int) int {
	n := requested
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > files {
		n = files
	}
	return n
}

func (a *Analyzer) analyzeOne(ctx context.Context, root string, f scan.File, noCache bool) types.FileResult {
	res := types.FileResult{
		Path:     f.Rel,
		FileName: filepath.Base(f.Rel),
		Size:     f.Size,
		Ext:      filepath.Ext(f.Rel),
	}
	if !noCache {
		if facts, ok := a.snapshots.Get(root, f); ok {
			res.Status = types.StatusSuccess
			res.Facts = facts
			return res
		}
	}

	src, err := os.ReadFile(f.Abs)
	if err != nil {
		res.Status = types.StatusError
		res.Error = err.Error()
		return res
	}
	facts, err := a.extractor.ExtractSource(ctx, f.Rel, src)
	if err != nil {
		res.Status = types.StatusError
		res.Error = err.Error()
		return res
	}
	res.Status = types.StatusSuccess
	res.Facts = facts
	if !noCache {
		if err := a.snapshots.Put(root, f, facts); err != nil {
			log.Printf("batch: snapshot %s: %v", f.Rel, err)
		}
	}
	return res
}

// Package watch triggers re-analysis when source files change. It watches a
// project tree recursively and coalesces bursts of filesystem events into a
// single callback.
package watch

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"cartograph/internal/scan"
)

const defaultDebounce = 500 * time.Millisecond

// Options tune a watcher.
type Options struct {
	// Debounce is the quiet period required before the callback fires.
	// Zero means 500ms.
	Debounce time.Duration
	// Excludes are directory names skipped in addition to scan defaults.
	Excludes []string
}

// Watcher observes one project root.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	excludes map[string]struct{}
}

// New sets up a recursive watch over root.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	excludes := make(map[string]struct{})
	for _, name := range scan.DefaultExcludes {
		excludes[name] = struct{}{}
	}
	for _, name := range opts.Excludes {
		if name != "" {
			excludes[name] = struct{}{}
		}
	}
	w := &Watcher{root: root, fsw: fsw, debounce: opts.Debounce, excludes: excludes}
	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir {
			if _, skip := w.excludes[d.Name()]; skip {
				return filepath.SkipDir
			}
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx ends, invoking onChange after each debounced burst of
// relevant events. New directories are added to the watch as they appear.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				// new directory: extend the watch
				if err := w.addRecursive(ev.Name); err == nil {
					log.Printf("watch: added %s", ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-fire:
			timer = nil
			fire = nil
			onChange()
		}
	}
}

// relevant filters out events for unsupported files and excluded
// directories.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if _, skip := w.excludes[base]; skip {
		return false
	}
	ext := filepath.Ext(ev.Name)
	if ext == "" {
		// could be a directory
		return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Remove)
	}
	for _, supported := range scan.DefaultExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Package analysis holds completed project analyses in memory so dashboard
// reads and chat turns do not re-run the pipeline.
package analysis

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"cartograph/internal/types"
)

const defaultMaxEntries = 256

type Cache struct {
	entries *lru.Cache[string, *types.ProjectAnalysis]

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	res  *types.ProjectAnalysis
	err  error
}

func New(maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	entries, err := lru.New[string, *types.ProjectAnalysis](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{
		entries:  entries,
		inflight: make(map[string]*call),
	}, nil
}

func (c *Cache) Get(projectID string) (*types.ProjectAnalysis, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(projectID)
}

func (c *Cache) Put(projectID string, pa *types.ProjectAnalysis) {
	if c == nil || pa == nil {
		return
	}
	c.entries.Add(projectID, pa)
}

func (c *Cache) Invalidate(projectID string) {
	if c == nil {
		return
	}
	c.entries.Remove(projectID)
}

func (c *Cache) Keys() []string {
	if c == nil {
		return nil
	}
	return c.entries.Keys()
}

// GetOrBuild returns the cached analysis for projectID, or runs build to
// produce and store one. Concurrent callers for the same id share a single
// build; callers for different ids do not block each other.
func (c *Cache) GetOrBuild(ctx context.Context, projectID string, build func(context.Context) (*types.ProjectAnalysis, error)) (*types.ProjectAnalysis, error) {
	if pa, ok := c.entries.Get(projectID); ok {
		return pa, nil
	}

	c.mu.Lock()
	if cl, ok := c.inflight[projectID]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.res, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[projectID] = cl
	c.mu.Unlock()

	cl.res, cl.err = build(ctx)
	if cl.err == nil && cl.res != nil {
		c.entries.Add(projectID, cl.res)
	}

	c.mu.Lock()
	delete(c.inflight, projectID)
	c.mu.Unlock()
	close(cl.done)

	return cl.res, cl.err
}

package statsmock

import (
	"context"
	"errors"
	"sync"

	"microloans-api/internal/domain/stats"
)

var (
	_ stats.Repository = (*Repo)(nil)
	_ stats.Cache      = (*Cache)(nil)
)

var ErrUnimplemented = errors.New("statsmock: method not implemented")

type Repo struct {
	SummarizeFn func(ctx context.Context) (*stats.Summary, error)
}

func (m *Repo) Summarize(ctx context.Context) (*stats.Summary, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx)
	}
	return nil, ErrUnimplemented
}

// Cache is an in-memory stats.Cache that counts invalidations and honours
// generations the way the redis cache does.
type Cache struct {
	mu            sync.Mutex
	summary       *stats.Summary
	gen           int64
	Invalidations int
}

func (c *Cache) Get(context.Context) (*stats.Summary, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary, c.gen, c.summary != nil
}

func (c *Cache) Set(_ context.Context, gen int64, s *stats.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.summary = s
}

func (c *Cache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = nil
	c.gen++
	c.Invalidations++
}

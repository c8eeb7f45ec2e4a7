package prefs

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mesh-intelligence/prefstore/internal/logfields"
	"github.com/mesh-intelligence/prefstore/internal/metrics"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Keywords is a consistent pair of keyword sets taken from one build.
type Keywords struct {
	Todo []string `json:"todo"`
	Done []string `json:"done"`
}

// keywordSets is published whole and never mutated after publication.
type keywordSets struct {
	todo []string
	done []string
}

// KeywordCache derives the ordered TODO and DONE keyword sets from the
// states setting. Sets are built lazily on first read, rebuilt by Refresh
// and dropped by Invalidate.
type KeywordCache struct {
	mu     sync.RWMutex
	sets   *keywordSets // nil until built
	source func(ctx context.Context) string
	parser types.WorkflowParser

	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewKeywordCache creates an empty cache. source returns the current states
// string; it must not call back into the cache.
func NewKeywordCache(source func(ctx context.Context) string, opts ...Option) *KeywordCache {
	return newKeywordCache(source, buildOptions(opts))
}

func newKeywordCache(source func(ctx context.Context) string, o *options) *KeywordCache {
	return &KeywordCache{
		source:   source,
		parser:   o.parser,
		logger:   o.logger,
		recorder: o.recorder,
	}
}

func (c *KeywordCache) current(ctx context.Context) *keywordSets {
	c.mu.RLock()
	sets := c.sets
	c.mu.RUnlock()
	if sets != nil {
		return sets
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = c.build(ctx)
	}
	return c.sets
}

// build runs with the write lock held. Everything is computed into fresh
// slices so a reader never sees a half-built set.
func (c *KeywordCache) build(ctx context.Context) *keywordSets {
	start := time.Now()
	states := c.source(ctx)

	sets := &keywordSets{}
	seenTodo := make(map[string]struct{})
	seenDone := make(map[string]struct{})
	for _, wf := range c.parser.Parse(states) {
		for _, kw := range wf.Todo {
			if _, ok := seenTodo[kw]; !ok {
				seenTodo[kw] = struct{}{}
				sets.todo = append(sets.todo, kw)
			}
		}
		for _, kw := range wf.Done {
			if _, ok := seenDone[kw]; !ok {
				seenDone[kw] = struct{}{}
				sets.done = append(sets.done, kw)
			}
		}
	}

	elapsed := time.Since(start)
	c.recorder.ObserveKeywordRebuild(elapsed)
	c.logger.Debug("keyword sets rebuilt",
		slog.Int("todo", len(sets.todo)),
		slog.Int("done", len(sets.done)),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return sets
}

// Refresh rebuilds both sets from the current states setting.
func (c *KeywordCache) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = c.build(ctx)
}

// Invalidate drops the sets; the next read rebuilds them. Tests use it to
// reset shared caches.
func (c *KeywordCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = nil
}

// TodoKeywords returns the TODO keywords in first-seen order.
func (c *KeywordCache) TodoKeywords(ctx context.Context) []string {
	return slices.Clone(c.current(ctx).todo)
}

// DoneKeywords returns the DONE keywords in first-seen order.
func (c *KeywordCache) DoneKeywords(ctx context.Context) []string {
	return slices.Clone(c.current(ctx).done)
}

// IsDoneKeyword reports whether keyword is a DONE keyword. Matching is
// exact and case-sensitive; the empty string is never a keyword.
func (c *KeywordCache) IsDoneKeyword(ctx context.Context, keyword string) bool {
	if keyword == "" {
		return false
	}
	return slices.Contains(c.current(ctx).done, keyword)
}

// FirstTodoState returns the first TODO keyword, if any.
func (c *KeywordCache) FirstTodoState(ctx context.Context) (string, bool) {
	return first(c.current(ctx).todo)
}

// FirstDoneState returns the first DONE keyword, if any.
func (c *KeywordCache) FirstDoneState(ctx context.Context) (string, bool) {
	return first(c.current(ctx).done)
}

// Snapshot returns both sets from the same build.
func (c *KeywordCache) Snapshot(ctx context.Context) Keywords {
	sets := c.current(ctx)
	return Keywords{
		Todo: slices.Clone(sets.todo),
		Done: slices.Clone(sets.done),
	}
}

func first(keywords []string) (string, bool) {
	if len(keywords) == 0 {
		return "", false
	}
	return keywords[0], true
}

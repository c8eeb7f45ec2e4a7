package prefs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mesh-intelligence/prefstore/internal/memory"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

var errBroken = errors.New("medium broken")

// brokenMedium fails every call whose kind is enabled.
type brokenMedium struct {
	*memory.Memory
	failReads  bool
	failWrites bool
}

func (b *brokenMedium) Get(ctx context.Context, ns, key string) (types.Value, bool, error) {
	if b.failReads {
		return types.Value{}, false, errBroken
	}
	return b.Memory.Get(ctx, ns, key)
}

func (b *brokenMedium) Entries(ctx context.Context, ns string) (types.Entries, error) {
	if b.failReads {
		return nil, errBroken
	}
	return b.Memory.Entries(ctx, ns)
}

func (b *brokenMedium) Put(ctx context.Context, ns string, entries types.Entries) error {
	if b.failWrites {
		return errBroken
	}
	return b.Memory.Put(ctx, ns, entries)
}

func (b *brokenMedium) Clear(ctx context.Context, ns string) error {
	if b.failWrites {
		return errBroken
	}
	return b.Memory.Clear(ctx, ns)
}

// countingRecorder records calls for assertions.
type countingRecorder struct {
	mu         sync.Mutex
	ops        map[string]int
	mismatches map[string]int
	skipped    map[string]int
	rebuilds   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		ops:        make(map[string]int),
		mismatches: make(map[string]int),
		skipped:    make(map[string]int),
	}
}

func (c *countingRecorder) IncOperation(ns, op string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := "ok"
	if !success {
		result = "error"
	}
	c.ops[ns+"/"+op+"/"+result]++
}

func (c *countingRecorder) IncKindMismatch(ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mismatches[ns]++
}

func (c *countingRecorder) IncRestoreSkipped(ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped[ns]++
}

func (c *countingRecorder) ObserveKeywordRebuild(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuilds++
}

// stubDefaults is a fixed DefaultProvider.
type stubDefaults types.Entries

func (s stubDefaults) Lookup(name string) (types.Value, bool) {
	v, ok := s[name]
	return v, ok
}

func (s stubDefaults) Entries() types.Entries { return types.Entries(s).Clone() }

package prefs

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/prefstore/internal/metrics"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Editor batches changes to one Store. Apply runs the clear first (if
// requested), then removals, then puts. For a key touched more than once,
// the last Put or Remove wins.
type Editor struct {
	store *Store
	clear bool
	// A zero Value marks a removal; Put rejects zero Values.
	mutations map[string]types.Value
	err       error
}

// Edit starts a batch of changes.
func (s *Store) Edit() *Editor {
	return &Editor{store: s, mutations: make(map[string]types.Value)}
}

// Put stages a write. An empty key or unsupported value fails the batch.
func (e *Editor) Put(key string, v types.Value) *Editor {
	switch {
	case e.err != nil:
	case key == "":
		e.err = types.ErrEmptyKey
	case !v.IsValid():
		e.err = fmt.Errorf("%w: key %q", types.ErrUnsupportedKind, key)
	default:
		e.mutations[key] = v
	}
	return e
}

// Remove stages a deletion. An empty key fails the batch, as in Put.
func (e *Editor) Remove(key string) *Editor {
	switch {
	case e.err != nil:
	case key == "":
		e.err = types.ErrEmptyKey
	default:
		e.mutations[key] = types.Value{}
	}
	return e
}

// Clear stages removal of every key that existed before Apply.
func (e *Editor) Clear() *Editor {
	e.clear = true
	return e
}

// Apply writes the batch. Steps are not atomic with each other; a failure
// part way leaves earlier steps applied.
func (e *Editor) Apply(ctx context.Context) error {
	if e.err != nil {
		return e.err
	}
	s := e.store

	if e.clear {
		err := s.medium.Clear(ctx, s.namespace)
		s.recorder.IncOperation(s.namespace, metrics.OpClear, err == nil)
		if err != nil {
			return fmt.Errorf("clear %s: %w", s.namespace, err)
		}
	}

	var removes []string
	puts := make(types.Entries, len(e.mutations))
	for key, v := range e.mutations {
		if v.IsValid() {
			puts[key] = v
		} else if !e.clear {
			removes = append(removes, key)
		}
	}

	if len(removes) > 0 {
		err := s.medium.Remove(ctx, s.namespace, removes...)
		s.recorder.IncOperation(s.namespace, metrics.OpRemove, err == nil)
		if err != nil {
			return fmt.Errorf("remove %s: %w", s.namespace, err)
		}
	}

	if len(puts) > 0 {
		err := s.medium.Put(ctx, s.namespace, puts)
		s.recorder.IncOperation(s.namespace, metrics.OpPut, err == nil)
		if err != nil {
			return fmt.Errorf("put %s: %w", s.namespace, err)
		}
	}
	return nil
}

// Package memory implements an in-process Backend. It is the default medium
// for tests and for the "memory" backend, and holds nothing across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

var _ types.Backend = (*Memory)(nil)

// Memory implements types.Backend with thread-safe in-memory storage.
type Memory struct {
	mu       sync.RWMutex
	attached bool
	data     map[string]types.Entries
}

// New creates an attached in-memory backend.
func New() *Memory {
	return &Memory{attached: true, data: make(map[string]types.Entries)}
}

// Attach re-attaches a detached Memory. Data is kept across detach.
func (m *Memory) Attach(config types.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attached {
		return types.ErrAlreadyAttached
	}
	if m.data == nil {
		m.data = make(map[string]types.Entries)
	}
	m.attached = true
	return nil
}

// Detach marks the backend detached; later calls return ErrDetached.
func (m *Memory) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = false
	return nil
}

// Get returns the value stored at key.
func (m *Memory) Get(ctx context.Context, namespace, key string) (types.Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(namespace); err != nil {
		return types.Value{}, false, err
	}
	v, ok := m.data[namespace][key]
	return v, ok, nil
}

// Put stores every entry of the batch.
func (m *Memory) Put(ctx context.Context, namespace string, entries types.Entries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(namespace); err != nil {
		return err
	}
	for key, v := range entries {
		if key == "" {
			return types.ErrEmptyKey
		}
		if !v.IsValid() {
			return types.ErrUnsupportedKind
		}
	}
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(types.Entries, len(entries))
		m.data[namespace] = ns
	}
	for key, v := range entries {
		ns[key] = v
	}
	return nil
}

// Remove deletes keys. Missing keys are ignored.
func (m *Memory) Remove(ctx context.Context, namespace string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(namespace); err != nil {
		return err
	}
	ns := m.data[namespace]
	for _, key := range keys {
		delete(ns, key)
	}
	return nil
}

// Clear drops the namespace map, leaving every other namespace untouched.
func (m *Memory) Clear(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(namespace); err != nil {
		return err
	}
	delete(m.data, namespace)
	return nil
}

// Keys lists the keys of namespace in no particular order.
func (m *Memory) Keys(ctx context.Context, namespace string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(namespace); err != nil {
		return nil, err
	}
	ns := m.data[namespace]
	keys := make([]string, 0, len(ns))
	for key := range ns {
		keys = append(keys, key)
	}
	return keys, nil
}

// Entries returns a copy of every entry in namespace.
func (m *Memory) Entries(ctx context.Context, namespace string) (types.Entries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(namespace); err != nil {
		return nil, err
	}
	return m.data[namespace].Clone(), nil
}

// check must be called with m.mu held.
func (m *Memory) check(namespace string) error {
	if !m.attached {
		return types.ErrDetached
	}
	if namespace == "" {
		return types.ErrEmptyNamespace
	}
	return nil
}

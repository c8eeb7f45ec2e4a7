package types

import (
	"context"
	"errors"
	"maps"
)

// Entries maps keys to values within one namespace.
type Entries map[string]Value

// Clone returns a shallow copy. Values are immutable, so the copy is
// independent of the receiver.
func (e Entries) Clone() Entries {
	if e == nil {
		return Entries{}
	}
	return maps.Clone(e)
}

// Medium is the persistent key-value storage underneath the typed stores.
// Implementations must be safe for concurrent use and must make every write
// visible to subsequent reads in the same process.
type Medium interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, namespace, key string) (Value, bool, error)

	// Put writes a batch of entries. Existing keys are replaced wholesale,
	// kind included.
	Put(ctx context.Context, namespace string, entries Entries) error

	// Remove deletes keys. Missing keys are ignored.
	Remove(ctx context.Context, namespace string, keys ...string) error

	// Clear removes every key in namespace and nothing else.
	Clear(ctx context.Context, namespace string) error

	// Keys lists the keys of namespace in no particular order.
	Keys(ctx context.Context, namespace string) ([]string, error)

	// Entries returns a copy of every entry in namespace.
	Entries(ctx context.Context, namespace string) (Entries, error)
}

// Backend is a Medium with an attach/detach lifecycle.
type Backend interface {
	Medium

	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach flushes pending writes and releases resources. Idempotent.
	// After Detach, operations return ErrDetached.
	Detach() error
}

// Medium lifecycle errors.
var (
	ErrDetached        = errors.New("medium is detached")
	ErrAlreadyAttached = errors.New("medium is already attached")
)

// Value and key errors.
var (
	ErrUnsupportedKind  = errors.New("unsupported value kind")
	ErrEmptyKey         = errors.New("key must not be empty")
	ErrEmptyNamespace   = errors.New("namespace must not be empty")
	ErrUnknownNamespace = errors.New("unknown namespace")
)

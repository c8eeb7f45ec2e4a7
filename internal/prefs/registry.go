package prefs

import (
	"fmt"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Registry holds the three fixed stores over a shared medium.
type Registry struct {
	settings  *Store
	state     *Store
	repoProps *Store
}

// NewRegistry binds one Store per namespace. Only settings consults the
// default-value provider.
func NewRegistry(medium types.Medium, opts ...Option) *Registry {
	return newRegistry(medium, buildOptions(opts))
}

func newRegistry(medium types.Medium, o *options) *Registry {
	return &Registry{
		settings:  newStore(types.NamespaceSettings, medium, o.defaults, o),
		state:     newStore(types.NamespaceState, medium, nil, o),
		repoProps: newStore(types.NamespaceRepoProps, medium, nil, o),
	}
}

// Settings returns the user-facing settings store.
func (r *Registry) Settings() *Store { return r.settings }

// State returns the internal application state store.
func (r *Registry) State() *Store { return r.state }

// RepoProps returns the raw store behind the repository property bags.
func (r *Registry) RepoProps() *Store { return r.repoProps }

// Namespaces lists the fixed namespace names.
func (r *Registry) Namespaces() []string {
	return append([]string(nil), types.Namespaces...)
}

// Store returns the store for a namespace name.
func (r *Registry) Store(namespace string) (*Store, error) {
	switch namespace {
	case types.NamespaceSettings:
		return r.settings, nil
	case types.NamespaceState:
		return r.state, nil
	case types.NamespaceRepoProps:
		return r.repoProps, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownNamespace, namespace)
}

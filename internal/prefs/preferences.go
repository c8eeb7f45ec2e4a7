package prefs

import (
	"context"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Preferences wires the registry, repository bags, snapshots and keyword
// cache over one medium.
type Preferences struct {
	*Registry
	Repos     *RepoProps
	Snapshots *Snapshots
	Keywords  *KeywordCache
}

// Open builds Preferences over medium. The medium must already be attached.
func Open(medium types.Medium, opts ...Option) *Preferences {
	o := buildOptions(opts)
	registry := newRegistry(medium, o)
	p := &Preferences{
		Registry: registry,
		Repos:    NewRepoProps(registry.RepoProps()),
	}
	p.Keywords = newKeywordCache(p.States, o)
	p.Snapshots = newSnapshots(registry, p.Keywords, o)
	return p
}

// States returns the workflow states setting.
func (p *Preferences) States(ctx context.Context) string {
	return p.Settings().String(ctx, KeyStates)
}

// SetStates writes the states setting and rebuilds the keyword sets.
func (p *Preferences) SetStates(ctx context.Context, states string) error {
	if err := p.Settings().PutString(ctx, KeyStates, states); err != nil {
		return err
	}
	p.Keywords.Refresh(ctx)
	return nil
}

package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mesh-intelligence/prefstore/internal/logfields"
	"github.com/mesh-intelligence/prefstore/internal/metrics"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// SkippedEntry names an imported entry that was not written.
type SkippedEntry struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// RestoreReport summarizes an import.
type RestoreReport struct {
	Restored int            `json:"restored"`
	Skipped  []SkippedEntry `json:"skipped,omitempty"`
}

func (r *RestoreReport) merge(o RestoreReport) {
	r.Restored += o.Restored
	r.Skipped = append(r.Skipped, o.Skipped...)
}

// Snapshots captures and restores the whole registry.
type Snapshots struct {
	registry *Registry
	defaults types.DefaultProvider
	keywords *KeywordCache // may be nil
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewSnapshots builds the engine. keywords may be nil; when set it is
// invalidated after every restore or reset.
func NewSnapshots(registry *Registry, keywords *KeywordCache, opts ...Option) *Snapshots {
	return newSnapshots(registry, keywords, buildOptions(opts))
}

func newSnapshots(registry *Registry, keywords *KeywordCache, o *options) *Snapshots {
	return &Snapshots{
		registry: registry,
		defaults: o.defaults,
		keywords: keywords,
		logger:   o.logger,
		recorder: o.recorder,
	}
}

// CaptureAll copies every namespace into a document.
func (s *Snapshots) CaptureAll(ctx context.Context) (*types.Document, error) {
	settings, err := s.registry.Settings().AllEntries(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.registry.State().AllEntries(ctx)
	if err != nil {
		return nil, err
	}
	repoProps, err := s.registry.RepoProps().AllEntries(ctx)
	if err != nil {
		return nil, err
	}
	return &types.Document{Settings: settings, State: state, RepoProps: repoProps}, nil
}

// RestoreAll clears settings and state, then writes every supported entry
// of the document. repoProps is merged into, not cleared, so bags absent
// from the document survive. Unsupported values are skipped and reported.
func (s *Snapshots) RestoreAll(ctx context.Context, doc *types.Document) (RestoreReport, error) {
	var report RestoreReport
	if doc == nil {
		doc = &types.Document{}
	}
	defer s.invalidateKeywords()

	steps := []struct {
		store *Store
		clear bool
	}{
		{s.registry.Settings(), true},
		{s.registry.State(), true},
		{s.registry.RepoProps(), false},
	}
	for _, step := range steps {
		r, err := s.replay(ctx, step.store, doc.Bag(step.store.Namespace()), step.clear)
		report.merge(r)
		if err != nil {
			return report, err
		}
	}

	s.logger.Info("preferences restored",
		logfields.Count(report.Restored),
		slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

// ExportSettings returns the settings namespace only.
func (s *Snapshots) ExportSettings(ctx context.Context) (types.Entries, error) {
	return s.registry.Settings().AllEntries(ctx)
}

// ImportSettings writes entries into settings without clearing it first.
func (s *Snapshots) ImportSettings(ctx context.Context, entries types.Entries) (RestoreReport, error) {
	defer s.invalidateKeywords()
	return s.replay(ctx, s.registry.Settings(), entries, false)
}

// ResetToDefaults clears settings and state and writes every provider
// default into settings. repoProps is left alone.
func (s *Snapshots) ResetToDefaults(ctx context.Context) error {
	defer s.invalidateKeywords()

	ed := s.registry.Settings().Edit().Clear()
	for key, v := range s.defaults.Entries() {
		ed.Put(key, v)
	}
	if err := ed.Apply(ctx); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	if err := s.registry.State().Clear(ctx); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	return nil
}

// replay writes a bag through one batch, dispatching on each value's kind.
func (s *Snapshots) replay(ctx context.Context, store *Store, bag types.Entries, clear bool) (RestoreReport, error) {
	var report RestoreReport
	ns := store.Namespace()

	ed := store.Edit()
	if clear {
		ed.Clear()
	}
	keys := make([]string, 0, len(bag))
	for key := range bag {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		v := bag[key]
		if key == "" || !v.IsValid() {
			s.logger.Warn("skipping unsupported entry", logfields.Namespace(ns), logfields.Key(key))
			s.recorder.IncRestoreSkipped(ns)
			report.Skipped = append(report.Skipped, SkippedEntry{Namespace: ns, Key: key})
			continue
		}
		ed.Put(key, v)
		report.Restored++
	}
	if err := ed.Apply(ctx); err != nil {
		return RestoreReport{Skipped: report.Skipped}, err
	}
	return report, nil
}

func (s *Snapshots) invalidateKeywords() {
	if s.keywords != nil {
		s.keywords.Invalidate()
	}
}

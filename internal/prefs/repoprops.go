package prefs

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// ErrInvalidRepoID is returned for negative repository IDs.
var ErrInvalidRepoID = errors.New("repository id must not be negative")

const repoKeyPrefix = "id-"

// RepoProps stores one string property bag per repository inside the
// repoProps namespace, under keys of the form "id-<id>-<name>".
type RepoProps struct {
	store *Store
}

// NewRepoProps wraps the repoProps store.
func NewRepoProps(store *Store) *RepoProps {
	return &RepoProps{store: store}
}

func repoPrefix(id int64) string {
	return repoKeyPrefix + strconv.FormatInt(id, 10) + "-"
}

// Set replaces the whole bag for id. The old bag is deleted before the new
// one is written, so a concurrent Get for the same id may observe an empty
// or partial bag in between.
func (r *RepoProps) Set(ctx context.Context, id int64, props map[string]string) error {
	if err := r.Delete(ctx, id); err != nil {
		return err
	}
	if len(props) == 0 {
		return nil
	}
	prefix := repoPrefix(id)
	ed := r.store.Edit()
	for name, value := range props {
		ed.Put(prefix+name, types.String(value))
	}
	return ed.Apply(ctx)
}

// Get returns the bag for id with prefixes stripped. Entries under the
// prefix that are not strings are ignored.
func (r *RepoProps) Get(ctx context.Context, id int64) (map[string]string, error) {
	if id < 0 {
		return nil, ErrInvalidRepoID
	}
	entries, err := r.store.AllEntries(ctx)
	if err != nil {
		return nil, err
	}
	prefix := repoPrefix(id)
	props := make(map[string]string)
	for key, v := range entries {
		name, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		if s, ok := v.AsString(); ok {
			props[name] = s
		}
	}
	return props, nil
}

// Delete removes every key of the bag for id. Other bags are untouched.
func (r *RepoProps) Delete(ctx context.Context, id int64) error {
	if id < 0 {
		return ErrInvalidRepoID
	}
	keys, err := r.store.KeysWithPrefix(ctx, repoPrefix(id))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.store.Remove(ctx, keys...)
}

// DeleteAll clears the repoProps namespace.
func (r *RepoProps) DeleteAll(ctx context.Context) error {
	return r.store.Clear(ctx)
}

// IDs returns the sorted IDs that currently have at least one key.
func (r *RepoProps) IDs(ctx context.Context) ([]int64, error) {
	keys, err := r.store.KeysWithPrefix(ctx, repoKeyPrefix)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, key := range keys {
		rest := strings.TrimPrefix(key, repoKeyPrefix)
		digits, _, found := strings.Cut(rest, "-")
		if !found {
			continue
		}
		id, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || id < 0 {
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

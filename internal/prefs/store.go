// Package prefs implements the preference store: typed stores over the
// three fixed namespaces, the repository property adapter, snapshot and
// restore, and the keyword workflow cache.
package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mesh-intelligence/prefstore/internal/logfields"
	"github.com/mesh-intelligence/prefstore/internal/metrics"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Store is a typed view of one namespace.
//
// Reads never fail: a missing key, a value of another kind, or a medium read
// error all resolve to the caller's default. Writes return medium errors
// unchanged apart from wrapping.
type Store struct {
	namespace string
	medium    types.Medium
	defaults  types.DefaultProvider
	logger    *slog.Logger
	recorder  metrics.Recorder
}

func newStore(namespace string, medium types.Medium, defaults types.DefaultProvider, o *options) *Store {
	return &Store{
		namespace: namespace,
		medium:    medium,
		defaults:  defaults,
		logger:    o.logger.With(logfields.Namespace(namespace)),
		recorder:  o.recorder,
	}
}

// Namespace returns the namespace name the store is bound to.
func (s *Store) Namespace() string { return s.namespace }

// Lookup returns the raw stored value.
func (s *Store) Lookup(ctx context.Context, key string) (types.Value, bool, error) {
	v, ok, err := s.medium.Get(ctx, s.namespace, key)
	s.recorder.IncOperation(s.namespace, metrics.OpGet, err == nil)
	if err != nil {
		return types.Value{}, false, fmt.Errorf("get %s/%s: %w", s.namespace, key, err)
	}
	return v, ok, nil
}

// lookupKind returns the stored value only when it has the wanted kind.
func (s *Store) lookupKind(ctx context.Context, key string, want types.Kind) (types.Value, bool) {
	v, ok, err := s.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn("read failed, using default", logfields.Key(key), logfields.Error(err))
		return types.Value{}, false
	}
	if !ok {
		return types.Value{}, false
	}
	if v.Kind() != want {
		s.logger.Debug("stored kind differs, using default",
			logfields.Key(key),
			logfields.Kind(string(v.Kind())),
			slog.String("want", string(want)))
		s.recorder.IncKindMismatch(s.namespace)
		return types.Value{}, false
	}
	return v, true
}

// GetBool returns the bool stored at key, or def.
func (s *Store) GetBool(ctx context.Context, key string, def bool) bool {
	if v, ok := s.lookupKind(ctx, key, types.KindBool); ok {
		b, _ := v.AsBool()
		return b
	}
	return def
}

// GetInt returns the 32-bit integer stored at key, or def.
func (s *Store) GetInt(ctx context.Context, key string, def int32) int32 {
	if v, ok := s.lookupKind(ctx, key, types.KindInt); ok {
		n, _ := v.AsInt()
		return n
	}
	return def
}

// GetLong returns the 64-bit integer stored at key, or def.
func (s *Store) GetLong(ctx context.Context, key string, def int64) int64 {
	if v, ok := s.lookupKind(ctx, key, types.KindLong); ok {
		n, _ := v.AsLong()
		return n
	}
	return def
}

// GetFloat returns the float stored at key, or def.
func (s *Store) GetFloat(ctx context.Context, key string, def float32) float32 {
	if v, ok := s.lookupKind(ctx, key, types.KindFloat); ok {
		f, _ := v.AsFloat()
		return f
	}
	return def
}

// GetString returns the string stored at key, or def.
func (s *Store) GetString(ctx context.Context, key string, def string) string {
	if v, ok := s.lookupKind(ctx, key, types.KindString); ok {
		str, _ := v.AsString()
		return str
	}
	return def
}

// GetStringSet returns the members in sorted order.
func (s *Store) GetStringSet(ctx context.Context, key string, def []string) []string {
	if v, ok := s.lookupKind(ctx, key, types.KindStringSet); ok {
		set, _ := v.AsStringSet()
		return set
	}
	return def
}

// Default returns the provider's default for key. Stores without a
// provider have no defaults.
func (s *Store) Default(key string) (types.Value, bool) {
	if s.defaults == nil {
		return types.Value{}, false
	}
	return s.defaults.Lookup(key)
}

// The getters below take their default from the provider. A key with no
// provider entry, or an entry of another kind, falls back to the zero value.

// Bool is GetBool with the provider default.
func (s *Store) Bool(ctx context.Context, key string) bool {
	d, _ := s.Default(key)
	def, _ := d.AsBool()
	return s.GetBool(ctx, key, def)
}

// Int is GetInt with the provider default.
func (s *Store) Int(ctx context.Context, key string) int32 {
	d, _ := s.Default(key)
	def, _ := d.AsInt()
	return s.GetInt(ctx, key, def)
}

// Long is GetLong with the provider default.
func (s *Store) Long(ctx context.Context, key string) int64 {
	d, _ := s.Default(key)
	def, _ := d.AsLong()
	return s.GetLong(ctx, key, def)
}

// Float is GetFloat with the provider default.
func (s *Store) Float(ctx context.Context, key string) float32 {
	d, _ := s.Default(key)
	def, _ := d.AsFloat()
	return s.GetFloat(ctx, key, def)
}

// String is GetString with the provider default.
func (s *Store) String(ctx context.Context, key string) string {
	d, _ := s.Default(key)
	def, _ := d.AsString()
	return s.GetString(ctx, key, def)
}

// StringSet is GetStringSet with the provider default.
func (s *Store) StringSet(ctx context.Context, key string) []string {
	d, _ := s.Default(key)
	def, _ := d.AsStringSet()
	return s.GetStringSet(ctx, key, def)
}

// Put writes one value, replacing whatever kind was stored before.
func (s *Store) Put(ctx context.Context, key string, v types.Value) error {
	return s.Edit().Put(key, v).Apply(ctx)
}

// PutBool stores a bool.
func (s *Store) PutBool(ctx context.Context, key string, b bool) error {
	return s.Put(ctx, key, types.Bool(b))
}

// PutInt stores a 32-bit integer.
func (s *Store) PutInt(ctx context.Context, key string, n int32) error {
	return s.Put(ctx, key, types.Int(n))
}

// PutLong stores a 64-bit integer.
func (s *Store) PutLong(ctx context.Context, key string, n int64) error {
	return s.Put(ctx, key, types.Long(n))
}

// PutFloat stores a float. NaN and infinities are valid.
func (s *Store) PutFloat(ctx context.Context, key string, f float32) error {
	return s.Put(ctx, key, types.Float(f))
}

// PutString stores a string.
func (s *Store) PutString(ctx context.Context, key, str string) error {
	return s.Put(ctx, key, types.String(str))
}

// PutStringSet stores members as a set; order and duplicates are dropped.
func (s *Store) PutStringSet(ctx context.Context, key string, members ...string) error {
	return s.Put(ctx, key, types.StringSet(members...))
}

// Remove deletes keys. Missing keys are ignored.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	ed := s.Edit()
	for _, key := range keys {
		ed.Remove(key)
	}
	return ed.Apply(ctx)
}

// Clear removes every key in this namespace only.
func (s *Store) Clear(ctx context.Context) error {
	return s.Edit().Clear().Apply(ctx)
}

// AllEntries returns a copy of the namespace. Mutating it does not affect
// the store.
func (s *Store) AllEntries(ctx context.Context) (types.Entries, error) {
	entries, err := s.medium.Entries(ctx, s.namespace)
	s.recorder.IncOperation(s.namespace, metrics.OpGet, err == nil)
	if err != nil {
		return nil, fmt.Errorf("entries %s: %w", s.namespace, err)
	}
	return entries, nil
}

// Keys returns the keys of the namespace, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.medium.Keys(ctx, s.namespace)
	s.recorder.IncOperation(s.namespace, metrics.OpGet, err == nil)
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", s.namespace, err)
	}
	slices.Sort(keys)
	return keys, nil
}

// KeysWithPrefix returns the sorted keys that start with prefix.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(keys, func(k string) bool {
		return !strings.HasPrefix(k, prefix)
	}), nil
}

// Tests for the SQLite backend.
package sqlite

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

func attach(t *testing.T, dir string, strategy string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      dir,
		SyncStrategy: strategy,
		BatchSize:    2,
		// Long enough that the timer never fires during a test.
		BatchInterval: time.Hour,
	}))
	return b
}

func rowCount(t *testing.T, b *Backend) int {
	t.Helper()
	var n int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n))
	return n
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := attach(t, tmpDir, "")

	_, err := os.Stat(filepath.Join(tmpDir, DatabaseFile))
	require.NoError(t, err, "prefs.db not created")

	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)

	require.NoError(t, b.Detach())
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := attach(t, t.TempDir(), "")

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach should be idempotent")

	ctx := context.Background()
	_, _, err := b.Get(ctx, "settings", "a")
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, b.Put(ctx, "settings", types.Entries{"a": types.Bool(true)}), types.ErrDetached)
	assert.ErrorIs(t, b.Flush(), types.ErrDetached)
}

func TestBackend_Operations(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "put then get returns every kind",
			check: func(t *testing.T, b *Backend) {
				in := types.Entries{
					"b":   types.Bool(true),
					"i":   types.Int(-5),
					"l":   types.Long(1_700_000_000_000),
					"f":   types.Float(1.5),
					"s":   types.String("TODO NEXT | DONE"),
					"set": types.StringSet("b", "a"),
				}
				require.NoError(t, b.Put(ctx, "settings", in))
				for key, want := range in {
					got, ok, err := b.Get(ctx, "settings", key)
					require.NoError(t, err)
					require.True(t, ok, key)
					assert.True(t, want.Equal(got), "key %s: got %v want %v", key, got, want)
				}
			},
		},
		{
			name: "writing a different kind replaces the kind",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.Put(ctx, "state", types.Entries{"k": types.String("x")}))
				require.NoError(t, b.Put(ctx, "state", types.Entries{"k": types.Int(3)}))
				got, ok, err := b.Get(ctx, "state", "k")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, types.KindInt, got.Kind())
				assert.Equal(t, 1, rowCount(t, b))
			},
		},
		{
			name: "remove deletes only the named keys",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.Put(ctx, "state", types.Entries{"a": types.Bool(true), "b": types.Bool(false)}))
				require.NoError(t, b.Remove(ctx, "state", "a", "missing"))
				keys, err := b.Keys(ctx, "state")
				require.NoError(t, err)
				assert.Equal(t, []string{"b"}, keys)
				assert.Equal(t, 1, rowCount(t, b))
			},
		},
		{
			name: "clear leaves other namespaces untouched",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.Put(ctx, "settings", types.Entries{"a": types.Bool(true)}))
				require.NoError(t, b.Put(ctx, "repoProps", types.Entries{"id-1-url": types.String("x")}))
				require.NoError(t, b.Clear(ctx, "settings"))

				got, err := b.Entries(ctx, "settings")
				require.NoError(t, err)
				assert.Empty(t, got)

				got, err = b.Entries(ctx, "repoProps")
				require.NoError(t, err)
				assert.Len(t, got, 1)
				assert.Equal(t, 1, rowCount(t, b))
			},
		},
		{
			name: "invalid values are rejected before any write",
			check: func(t *testing.T, b *Backend) {
				err := b.Put(ctx, "settings", types.Entries{"ok": types.Bool(true), "bad": {}})
				assert.ErrorIs(t, err, types.ErrUnsupportedKind)
				assert.Equal(t, 0, rowCount(t, b))
				_, ok, err := b.Get(ctx, "settings", "ok")
				require.NoError(t, err)
				assert.False(t, ok)
			},
		},
		{
			name: "entries snapshot is detached from the mirror",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.Put(ctx, "settings", types.Entries{"a": types.Bool(true)}))
				got, err := b.Entries(ctx, "settings")
				require.NoError(t, err)
				delete(got, "a")
				_, ok, err := b.Get(ctx, "settings", "a")
				require.NoError(t, err)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := attach(t, t.TempDir(), types.SyncImmediate)
			defer b.Detach()
			tt.check(t, b)
		})
	}
}

func TestBackend_PersistsAcrossAttach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := attach(t, dir, types.SyncImmediate)
	require.NoError(t, b.Put(ctx, "state", types.Entries{"last_sync": types.Long(42)}))
	require.NoError(t, b.Detach())

	b2 := attach(t, dir, types.SyncImmediate)
	defer b2.Detach()
	got, ok, err := b2.Get(ctx, "state", "last_sync")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, types.Long(42).Equal(got))
}

func TestBackend_OnCloseDefersDatabaseWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := attach(t, dir, types.SyncOnClose)
	require.NoError(t, b.Put(ctx, "settings", types.Entries{"a": types.String("x")}))
	require.NoError(t, b.Put(ctx, "settings", types.Entries{"b": types.String("y")}))
	require.NoError(t, b.Remove(ctx, "settings", "a"))

	// Reads see the writes before the database does.
	_, ok, err := b.Get(ctx, "settings", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, rowCount(t, b))

	require.NoError(t, b.Detach())

	b2 := attach(t, dir, types.SyncImmediate)
	defer b2.Detach()
	got, err := b2.Entries(ctx, "settings")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "b")
}

func TestBackend_BatchFlushesAtSize(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir(), types.SyncBatch)
	defer b.Detach()

	require.NoError(t, b.Put(ctx, "state", types.Entries{"a": types.Int(1)}))
	assert.Equal(t, 0, rowCount(t, b))

	require.NoError(t, b.Put(ctx, "state", types.Entries{"b": types.Int(2)}))
	assert.Equal(t, 2, rowCount(t, b))

	require.NoError(t, b.Put(ctx, "state", types.Entries{"c": types.Int(3)}))
	require.NoError(t, b.Flush())
	assert.Equal(t, 3, rowCount(t, b))
}

func TestBackend_SkipsUnreadableRowsOnLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := attach(t, dir, types.SyncImmediate)
	require.NoError(t, b.Put(ctx, "settings", types.Entries{"good": types.Bool(true)}))
	_, err := b.db.Exec(
		"INSERT INTO entries (namespace, key, kind, value, updated_at) VALUES ('settings', 'bad', 'double', '1', '')")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := attach(t, dir, types.SyncImmediate)
	defer b2.Detach()
	got, err := b2.Entries(ctx, "settings")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "good")
}

func TestBackend_NonFiniteFloatsPersist(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	want := types.Entries{
		"nan":     types.Float(float32(math.NaN())),
		"pos_inf": types.Float(float32(math.Inf(1))),
		"neg_inf": types.Float(float32(math.Inf(-1))),
	}

	b := attach(t, dir, types.SyncImmediate)
	require.NoError(t, b.Put(ctx, "settings", want))
	require.NoError(t, b.Detach())

	b2 := attach(t, dir, types.SyncImmediate)
	defer b2.Detach()
	got, err := b2.Entries(ctx, "settings")
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for key, v := range want {
		assert.True(t, v.Equal(got[key]), "%s: got %v", key, got[key])
	}
}

func TestBackend_ImmediateFailureLeavesMirror(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir(), types.SyncImmediate)
	defer b.Detach()

	_, err := b.db.Exec("DROP TABLE entries")
	require.NoError(t, err)

	require.Error(t, b.Put(ctx, "state", types.Entries{"a": types.Int(1)}))
	_, ok, err := b.Get(ctx, "state", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackend_BatchFlushFailureKeepsMirrorAndQueue(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := attach(t, dir, types.SyncBatch)

	_, err := b.db.Exec("DROP TABLE entries")
	require.NoError(t, err)

	// The second put reaches the batch size and its flush fails. The writes
	// stay accepted and visible.
	require.NoError(t, b.Put(ctx, "state", types.Entries{"a": types.Int(1)}))
	require.NoError(t, b.Put(ctx, "state", types.Entries{"b": types.Int(2)}))
	got, err := b.Entries(ctx, "state")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.Error(t, b.Flush())

	_, err = b.db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := attach(t, dir, types.SyncImmediate)
	defer b2.Detach()
	reloaded, err := b2.Entries(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, got, reloaded)
}

package prefs

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prefstore/internal/memory"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

func seed(t *testing.T, p *Preferences) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, p.Settings().PutString(ctx, "theme", "dark"))
	require.NoError(t, p.Settings().PutStringSet(ctx, "tags", "work", "home"))
	require.NoError(t, p.Settings().PutFloat(ctx, "scale", 1.25))
	require.NoError(t, p.State().PutLong(ctx, KeyLastSuccessfulSyncTime, 1700000000000))
	require.NoError(t, p.State().PutInt(ctx, KeyLastUsedVersionCode, 42))
	require.NoError(t, p.State().PutBool(ctx, "flag", true))
	require.NoError(t, p.Repos.Set(ctx, 3, map[string]string{"url": "file:/tmp"}))
}

func TestSnapshots_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := Open(memory.New())
	seed(t, src)

	doc, err := src.Snapshots.CaptureAll(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))
	decoded, err := ReadDocument(&buf)
	require.NoError(t, err)

	dst := Open(memory.New())
	report, err := dst.Snapshots.RestoreAll(ctx, decoded)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Restored)
	assert.Empty(t, report.Skipped)

	again, err := dst.Snapshots.CaptureAll(ctx)
	require.NoError(t, err)
	for _, ns := range types.Namespaces {
		want, got := doc.Bag(ns), again.Bag(ns)
		require.Len(t, got, len(want), ns)
		for k, v := range want {
			assert.True(t, v.Equal(got[k]), "%s/%s", ns, k)
		}
	}
}

func TestSnapshots_NonFiniteFloatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := Open(memory.New())
	seed(t, src)
	floats := map[string]float32{
		"nan":     float32(math.NaN()),
		"pos_inf": float32(math.Inf(1)),
		"neg_inf": float32(math.Inf(-1)),
	}
	for key, f := range floats {
		require.NoError(t, src.Settings().PutFloat(ctx, key, f))
	}

	doc, err := src.Snapshots.CaptureAll(ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))
	decoded, err := ReadDocument(&buf)
	require.NoError(t, err)

	dst := Open(memory.New())
	report, err := dst.Snapshots.RestoreAll(ctx, decoded)
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	for key, f := range floats {
		got := dst.Settings().GetFloat(ctx, key, 0)
		assert.True(t, types.Float(f).Equal(types.Float(got)), "%s: got %v", key, got)
	}
	assert.Equal(t, "dark", dst.Settings().GetString(ctx, "theme", ""))
}

func TestSnapshots_RestoreKeepsUnlistedRepoProps(t *testing.T) {
	ctx := context.Background()
	p := Open(memory.New())
	require.NoError(t, p.Settings().PutString(ctx, "old_setting", "x"))
	require.NoError(t, p.State().PutString(ctx, "old_state", "y"))
	require.NoError(t, p.Repos.Set(ctx, 1, map[string]string{"a": "1"}))

	doc := &types.Document{
		Settings:  types.Entries{"new_setting": types.Bool(true)},
		RepoProps: types.Entries{"id-2-b": types.String("2")},
	}
	_, err := p.Snapshots.RestoreAll(ctx, doc)
	require.NoError(t, err)

	keys, err := p.Settings().Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new_setting"}, keys)

	keys, err = p.State().Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	ids, err := p.Repos.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestSnapshots_RestoreSkipsUnsupported(t *testing.T) {
	ctx := context.Background()
	rec := newCountingRecorder()
	p := Open(memory.New(), WithRecorder(rec))

	doc, err := ReadDocument(strings.NewReader(`{
		"defaultPrefsValues": {
			"flag": true,
			"count": 5,
			"big": 5000000000,
			"ratio": 0.5,
			"name": "x",
			"list": ["b", "a"],
			"nested": {"deep": 1},
			"mixed": ["a", 1],
			"nothing": null
		},
		"statePrefsValues": {
			"tagged": {"kind": "long", "value": 9}
		}
	}`))
	require.NoError(t, err)

	report, err := p.Snapshots.RestoreAll(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Restored)
	assert.ElementsMatch(t, []SkippedEntry{
		{Namespace: types.NamespaceSettings, Key: "mixed"},
		{Namespace: types.NamespaceSettings, Key: "nested"},
		{Namespace: types.NamespaceSettings, Key: "nothing"},
	}, report.Skipped)
	assert.Equal(t, 3, rec.skipped[types.NamespaceSettings])

	s := p.Settings()
	assert.True(t, s.GetBool(ctx, "flag", false))
	assert.Equal(t, int32(5), s.GetInt(ctx, "count", 0))
	assert.Equal(t, int64(5000000000), s.GetLong(ctx, "big", 0))
	assert.Equal(t, float32(0.5), s.GetFloat(ctx, "ratio", 0))
	assert.Equal(t, "x", s.GetString(ctx, "name", ""))
	assert.Equal(t, []string{"a", "b"}, s.GetStringSet(ctx, "list", nil))
	assert.Equal(t, int64(9), p.State().GetLong(ctx, "tagged", 0))
}

func TestSnapshots_RestoreInvalidatesKeywords(t *testing.T) {
	ctx := context.Background()
	p := Open(memory.New())
	assert.Equal(t, []string{"DONE"}, p.Keywords.DoneKeywords(ctx))

	doc := &types.Document{Settings: types.Entries{KeyStates: types.String("OPEN | CLOSED")}}
	_, err := p.Snapshots.RestoreAll(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"CLOSED"}, p.Keywords.DoneKeywords(ctx))
}

func TestSnapshots_RestoreNilDocumentClears(t *testing.T) {
	ctx := context.Background()
	p := Open(memory.New())
	seed(t, p)

	_, err := p.Snapshots.RestoreAll(ctx, nil)
	require.NoError(t, err)

	doc, err := p.Snapshots.CaptureAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Settings)
	assert.Empty(t, doc.State)
	assert.Len(t, doc.RepoProps, 1)
}

func TestSnapshots_RestoreWriteFailure(t *testing.T) {
	ctx := context.Background()
	m := &brokenMedium{Memory: memory.New(), failWrites: true}
	p := Open(m)

	_, err := p.Snapshots.RestoreAll(ctx, &types.Document{})
	assert.ErrorIs(t, err, errBroken)
}

func TestSnapshots_ImportSettingsMerges(t *testing.T) {
	ctx := context.Background()
	p := Open(memory.New())
	require.NoError(t, p.Settings().PutString(ctx, "keep", "k"))
	require.NoError(t, p.State().PutString(ctx, "state", "s"))

	report, err := p.Snapshots.ImportSettings(ctx, types.Entries{
		"added": types.Int(1),
		"bad":   types.Value{},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Restored)
	assert.Len(t, report.Skipped, 1)

	exported, err := p.Snapshots.ExportSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, exported, 2)
	assert.Equal(t, "s", p.State().GetString(ctx, "state", ""))
}

func TestSnapshots_ResetToDefaults(t *testing.T) {
	ctx := context.Background()
	provider := stubDefaults{
		KeyStates: types.String("OPEN | SHUT"),
		"size":    types.Int(3),
	}
	p := Open(memory.New(), WithDefaults(provider))
	require.NoError(t, p.Settings().PutString(ctx, "custom", "c"))
	require.NoError(t, p.State().PutBool(ctx, "seen", true))
	require.NoError(t, p.Repos.Set(ctx, 1, map[string]string{"a": "b"}))
	require.NoError(t, p.SetStates(ctx, "A | B"))

	require.NoError(t, p.Snapshots.ResetToDefaults(ctx))

	settings, err := p.Snapshots.ExportSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, settings, 2)
	assert.Equal(t, int32(3), p.Settings().GetInt(ctx, "size", 0))

	keys, err := p.State().Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	props, err := p.Repos.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b"}, props)

	assert.Equal(t, []string{"SHUT"}, p.Keywords.DoneKeywords(ctx))
}

func TestSaveDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.json")
	doc := &types.Document{
		Settings: types.Entries{"a": types.StringSet("x", "y")},
		State:    types.Entries{"b": types.Long(-3)},
	}

	require.NoError(t, SaveDocument(path, doc))
	// Overwrite in place.
	doc.State["c"] = types.Bool(false)
	require.NoError(t, SaveDocument(path, doc))

	loaded, err := LoadDocument(path)
	require.NoError(t, err)
	assert.True(t, loaded.Settings["a"].Equal(types.StringSet("x", "y")))
	assert.True(t, loaded.State["c"].Equal(types.Bool(false)))
	assert.Empty(t, loaded.RepoProps)

	matches, err := filepath.Glob(filepath.Join(dir, ".prefs-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLoadDocument_Errors(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = ReadDocument(strings.NewReader("not json"))
	assert.Error(t, err)
}

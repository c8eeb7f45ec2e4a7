package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

func TestNewBackend_AttachPutDetach(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	require.NoError(t, b.Put(ctx, types.NamespaceSettings, types.Entries{"k": types.Bool(true)}))
	require.NoError(t, b.Detach())

	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	assert.NoError(t, err)

	_, _, err = b.Get(ctx, types.NamespaceSettings, "k")
	assert.ErrorIs(t, err, types.ErrDetached)
}

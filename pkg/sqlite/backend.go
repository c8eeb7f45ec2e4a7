// Package sqlite exposes the SQLite medium to callers outside this module
// while keeping its implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/prefstore/internal/sqlite"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// DatabaseFile is the file created inside Config.DataDir.
const DatabaseFile = sqlite.DatabaseFile

// NewBackend creates a detached SQLite backend that logs to logger (nil
// discards). Call Attach with a Config before use.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dir,
//	})
//	defer backend.Detach()
func NewBackend(logger *slog.Logger) types.Backend {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}

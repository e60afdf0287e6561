// Package sqlite exposes the SQLite store while keeping its implementation
// internal.
package sqlite

import (
	"github.com/mesh-intelligence/timeline/internal/sqlite"
	"github.com/mesh-intelligence/timeline/pkg/types"
)

// NewBackend creates a detached SQLite store.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}

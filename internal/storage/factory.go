// internal/storage/factory.go
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/config"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/database"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/storage/gormstore"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		mgr := database.New(log)
		if err := mgr.Connect(); err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		return gormstore.New(mgr, log), nil
	case "sqlite":
		mgr := database.New(log)
		path := filepath.Join(cfg.Memory.OutputDir, "results.db")
		if err := mgr.ConnectSQLite(path); err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		store := gormstore.New(mgr, log)
		store.DumpInterval = cfg.SQLite.DumpInterval
		return store, nil
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

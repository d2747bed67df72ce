package kvstore

import (
	"fmt"
	"path/filepath"

	"keepsake/internal/config"
	"keepsake/internal/keepsake"
)

// SQLiteFileName is the database file created under data_dir for type=sqlite.
const SQLiteFileName = "keepsake.db"

// NewBackendFromConfig creates a Backend based on the store config type.
// The caller closes the result if it implements io.Closer.
func NewBackendFromConfig(cfg config.StoreConfig) (keepsake.Backend, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryBackend(cfg.MaxBytes), nil
	case "filesystem":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("filesystem store requires data_dir to be set")
		}
		b, err := NewFileSystemBackend(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		b, err := NewSQLiteBackend(filepath.Join(cfg.DataDir, SQLiteFileName))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

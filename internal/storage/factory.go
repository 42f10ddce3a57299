package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"keksly-go/internal/config"
	"keksly-go/internal/keksly"
)

// NewStoreFromConfig creates a Store implementation based on the storage config type.
// When cfg.Encrypted is set the store is wrapped with sealer, which must then be non-nil.
func NewStoreFromConfig(ctx context.Context, cfg config.StorageConfig, origin string, clock keksly.Clock, sealer keksly.Sealer) (keksly.Store, error) {
	store, err := newBackend(ctx, cfg, origin, clock)
	if err != nil {
		return nil, err
	}
	if !cfg.Encrypted {
		return store, nil
	}
	if sealer == nil {
		return nil, fmt.Errorf("encrypted storage requires a sealer")
	}
	return NewEncryptedStore(store, sealer), nil
}

func newBackend(ctx context.Context, cfg config.StorageConfig, origin string, clock keksly.Clock) (keksly.Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for filesystem storage")
		}
		return NewFileSystemStore(cfg.Dir, origin)
	case "cookie":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for cookie storage")
		}
		return NewCookieStore(cfg.Dir, origin, clock)
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for sqlite storage")
		}
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.Dir, "keksly.db"), origin, clock)
	case "s3":
		return NewS3StoreFromConfig(ctx, cfg, origin)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

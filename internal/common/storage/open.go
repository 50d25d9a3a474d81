// internal/common/storage/open.go
package storage

import (
	"context"
	"fmt"

	"stock-backoffice/internal/common/config"
)

// Open builds the backend selected by cfg.Backend and verifies it is
// reachable.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryBackend(), nil
	case "", "file":
		return NewFileBackend(cfg.Dir)
	case "redis":
		backend := NewRedis(cfg.Redis, cfg.Namespace)
		if err := backend.Ping(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		return backend, nil
	case "postgres":
		backend, err := NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureSchema(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to prepare storage table: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

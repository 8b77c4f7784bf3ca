package sequence

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Backend string // file (default) | sqlite | postgres | memory
	Path    string // file or sqlite database path
	DSN     string // postgres connection string
}

// Open builds the store named by cfg.Backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path, logger)
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.Path, logger)
	case BackendPostgres:
		return OpenPostgresStore(ctx, cfg.DSN, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown counter backend %q", cfg.Backend)
	}
}

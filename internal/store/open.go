package store

import (
	"context"
	"fmt"

	"github.com/callsight/callsight/internal/config"
)

// Open selects the backend named in the settings file.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Store.SQLitePath)
	case "postgres":
		if cfg.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("store.postgres_dsn is required for the postgres driver")
		}
		return NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

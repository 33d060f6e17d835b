// Package open picks the storage backend named in the config.
// It lives outside package storage so the interface package does not
// import its own implementations.
package open

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/books-api/internal/config"
	"github.com/aanand-mishra/books-api/internal/storage"
	"github.com/aanand-mishra/books-api/internal/storage/postgres"
	"github.com/aanand-mishra/books-api/internal/storage/sqlite"
)

// Storage opens the backend selected by cfg.Driver.
func Storage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		p, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("open.Storage: unknown driver %q", cfg.Driver)
	}
}

// Package storage selects the route catalog backend from configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/ridematch/internal/adapters/memory"
	"github.com/samirrijal/ridematch/internal/adapters/postgres"
	"github.com/samirrijal/ridematch/internal/core/ports"
	"github.com/samirrijal/ridematch/internal/pkg/config"
)

// Store is an opened catalog backend.
type Store struct {
	Routes ports.RouteRepository
	// DB is set for the postgres driver only.
	DB *postgres.DB
}

// Close releases backend resources.
func (s *Store) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}

// Open connects the backend named by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		slog.Info("catalog store", "driver", cfg.Storage.Driver, "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
		return &Store{Routes: postgres.NewRouteRepo(db), DB: db}, nil

	case config.DriverMemory, "":
		store, err := memory.NewRouteStore(cfg.Storage.File)
		if err != nil {
			return nil, err
		}
		n, _ := store.Count(ctx)
		slog.Info("catalog store", "driver", config.DriverMemory, "file", cfg.Storage.File, "routes", n)
		return &Store{Routes: store}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

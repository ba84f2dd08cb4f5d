// Package store opens the configured database driver and builds its repositories.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/repository/mongodb"
	"github.com/prn-tf/alexander-library/internal/repository/postgres"
	"github.com/prn-tf/alexander-library/internal/repository/sqlite"
)

// Open connects to the database selected by cfg.Driver.
// The caller owns the returned Database and must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.CreateRepositoriesResult, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.CacheSize != 0 {
			sqliteCfg.CacheSize = cfg.CacheSize
		}
		if cfg.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.SynchronousMode
		}

		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.CreateRepositoriesResult{
			Repos: &repository.Repositories{
				User:      sqlite.NewUserRepository(db),
				Bookshelf: sqlite.NewBookshelfRepository(db),
				Category:  sqlite.NewCategoryRepository(db),
				Book:      sqlite.NewBookRepository(db),
			},
			Database: db,
			Migrator: db,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.CreateRepositoriesResult{
			Repos: &repository.Repositories{
				User:      postgres.NewUserRepository(db),
				Bookshelf: postgres.NewBookshelfRepository(db),
				Category:  postgres.NewCategoryRepository(db),
				Book:      postgres.NewBookRepository(db),
			},
			Database: db,
			Migrator: db,
		}, nil

	case config.DriverMongo:
		db, err := mongodb.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.CreateRepositoriesResult{
			Repos: &repository.Repositories{
				User:      mongodb.NewUserRepository(db),
				Bookshelf: mongodb.NewBookshelfRepository(db),
				Category:  mongodb.NewCategoryRepository(db),
				Book:      mongodb.NewBookRepository(db),
			},
			Database: db,
			Migrator: db,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

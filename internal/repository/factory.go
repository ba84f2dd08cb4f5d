// Package repository provides data access layer for the Alexander library.
// This file contains the types a storage driver hands back to the application.
package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User      UserRepository
	Bookshelf BookshelfRepository
	Category  CategoryRepository
	Book      BookRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies the status endpoint's dependency checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Migrator is implemented by drivers that manage their own schema.
type Migrator interface {
	// Migrate applies pending migrations.
	Migrate(ctx context.Context) error

	// Version returns the highest applied migration version.
	Version(ctx context.Context) (int, error)
}

// CreateRepositoriesResult contains the created repositories and database connection.
type CreateRepositoriesResult struct {
	Repos    *Repositories
	Database DatabaseHealth
	Migrator Migrator
}

// Package main is the entry point for the Alexander library migration tool.
// It applies the embedded schema migrations of the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/logging"
	"github.com/prn-tf/alexander-library/internal/repository/store"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	switch command {
	case "version":
		fmt.Printf("Alexander Library Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		if err := migrate(*configPath, command == "up"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// migrate reports the schema version, applying pending migrations first when apply is set.
func migrate(configPath string, apply bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.Setup(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	before, err := db.Migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if !apply {
		fmt.Printf("Driver: %s\n", cfg.Database.Driver)
		fmt.Printf("Schema version: %d\n", before)
		return nil
	}

	if err := db.Migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	after, err := db.Migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if after == before {
		fmt.Printf("Schema is up to date (version %d)\n", after)
	} else {
		fmt.Printf("Migrated schema from version %d to %d\n", before, after)
	}
	return nil
}

func printUsage() {
	fmt.Println(`Alexander Library Migration Tool

Usage:
  alexander-migrate [-config file] <command>

Commands:
  up          Apply all pending migrations
  status      Show the current schema version
  version     Print version information
  help        Show this help message

The database is selected by the configuration file or ALEXANDER_DATABASE_*
environment variables, for example:
  ALEXANDER_DATABASE_DRIVER=postgres ALEXANDER_DATABASE_URI=postgres://... alexander-migrate up`)
}

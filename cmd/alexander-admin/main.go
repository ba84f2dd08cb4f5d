// Package main is the entry point for the Alexander library admin CLI.
// It manages users and reports library-wide totals straight from the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/logging"
	"github.com/prn-tf/alexander-library/internal/pkg/crypto"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/repository/store"
	"github.com/prn-tf/alexander-library/internal/service"
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

	args := flag.Args()
	var err error

	switch args[0] {
	case "version":
		fmt.Printf("Alexander Library Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = withUsers(*configPath, func(ctx context.Context, users *service.UserService) error {
			return userCommand(ctx, users, args[1:])
		})

	case "keygen":
		var key string
		if key, err = crypto.GenerateHexKey(); err == nil {
			fmt.Println(key)
		}

	case "stats":
		err = withUsers(*configPath, func(ctx context.Context, users *service.UserService) error {
			stats, err := users.Stats(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		})

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withUsers opens the configured database and runs fn with a user service on it.
func withUsers(configPath string, fn func(context.Context, *service.UserService) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.Setup(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	if err := db.Migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// User commands never touch bookshelf contents, so no locker or content store.
	users := service.NewUserService(service.Deps{
		Repos:      db.Repos,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	return fn(ctx, users)
}

func userCommand(ctx context.Context, users *service.UserService, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("user requires a subcommand: list or create")
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("user list", flag.ContinueOnError)
		limit := fs.Int("limit", 100, "maximum number of users to list")
		offset := fs.Int("offset", 0, "number of users to skip")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		list, err := users.List(ctx, repository.ListOptions{Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED")
		for _, u := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()

	case "create":
		fs := flag.NewFlagSet("user create", flag.ContinueOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		user, err := users.Register(ctx, service.RegisterInput{Name: *name, Email: *email, Password: *password})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", user.ID, user.Email)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

func printUsage() {
	fmt.Println(`Alexander Library Admin CLI

Usage:
  alexander-admin [-config file] <command> [arguments]

Commands:
  user list     List users (-limit, -offset)
  user create   Create a user (-name, -email, -password)
  stats         Print totals of users, bookshelves, categories and books
  keygen        Generate a hex session key for ALEXANDER_AUTH_SESSION_KEY
  version       Print version information
  help          Show this help message

Examples:
  alexander-admin user create -name Ada -email ada@example.com -password 'Passw0rd!'
  alexander-admin user list -limit 20
  alexander-admin stats`)
}

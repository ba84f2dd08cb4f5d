// Package main is the entry point for the Alexander library server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/cache/memory"
	rediscache "github.com/prn-tf/alexander-library/internal/cache/redis"
	"github.com/prn-tf/alexander-library/internal/config"
	"github.com/prn-tf/alexander-library/internal/handler"
	"github.com/prn-tf/alexander-library/internal/lock"
	"github.com/prn-tf/alexander-library/internal/logging"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/repository/store"
	"github.com/prn-tf/alexander-library/internal/service"
	"github.com/prn-tf/alexander-library/internal/storage"
	"github.com/prn-tf/alexander-library/internal/storage/filesystem"
	s3storage "github.com/prn-tf/alexander-library/internal/storage/s3"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting Alexander library server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	if err := db.Migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	cache, locker, closeCache, err := openCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	content, err := openContent(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	sessions, err := auth.NewSessionManager(cache, cfg.Auth.SessionKey, cfg.Auth.SessionTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	if cfg.Auth.SessionKey == "" {
		logger.Warn().Msg("no auth.session_key configured; sessions will not survive a restart")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	services := service.New(service.Deps{
		Repos:    db.Repos,
		Content:  content,
		Sessions: sessions,
		Locker:   locker,
		LockOptions: lock.Options{
			TTL:        cfg.Auth.LockTTL,
			Retries:    cfg.Auth.LockRetries,
			RetryDelay: cfg.Auth.LockRetryDelay,
		},
		Metrics:    m,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Services:    services,
		Sessions:    sessions,
		Database:    db.Database,
		Cache:       cache,
		Metrics:     m,
		BaseURL:     cfg.Server.BaseURL,
		MaxBodySize: cfg.Server.MaxBodySize,
		Logger:      logger,
	})

	servers := []*http.Server{{
		Addr:         cfg.Server.Address(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}
	if m != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
	case err = <-errCh:
		logger.Error().Err(err).Msg("listener failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn().Err(shutdownErr).Str("addr", srv.Addr).Msg("graceful shutdown failed")
		}
	}
	return err
}

// openCache returns the session cache and the locker. Redis backs both when
// enabled; otherwise both live in process memory.
func openCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (repository.Cache, lock.Locker, func(), error) {
	if !cfg.Enabled {
		logger.Info().Msg("redis disabled; using in-memory sessions and locks")
		cache := memory.NewCache()
		locker := lock.NewMemoryLocker()
		return cache, locker, func() {
			cache.Stop()
			locker.Stop()
		}, nil
	}

	client, err := rediscache.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	return rediscache.NewCache(client), lock.NewRedisLocker(rediscache.NewLock(client)), closeFn, nil
}

// openContent builds the configured content store.
func openContent(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case config.StorageS3:
		client, err := s3storage.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		backend, err := s3storage.New(client, cfg.S3, cfg.TempDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 content store: %w", err)
		}
		if err := backend.Ping(ctx); err != nil {
			return nil, fmt.Errorf("s3 bucket %q is not reachable: %w", cfg.S3.Bucket, err)
		}
		return backend, nil

	case config.StorageFilesystem, "":
		backend, err := filesystem.New(cfg.DataDir, cfg.TempDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}

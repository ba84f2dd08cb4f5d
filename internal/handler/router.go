// Package handler provides the HTTP API of the Alexander library.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/service"
)

// APIPrefix is the base path of every API route.
const APIPrefix = "/api/v1"

// Pinger is a dependency the status endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router handles HTTP routing for the library API.
type Router struct {
	services    *service.Services
	sessions    auth.SessionResolver
	database    Pinger
	cache       Pinger
	metrics     *metrics.Metrics
	baseURL     string
	maxBodySize int64
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Services *service.Services
	Sessions auth.SessionResolver

	// Database and Cache back the status endpoint.
	Database Pinger
	Cache    Pinger

	Metrics *metrics.Metrics

	// BaseURL is the external origin used in page links. Empty means the
	// origin is taken from each request.
	BaseURL string

	// MaxBodySize caps request bodies, including book uploads.
	MaxBodySize int64

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		services:    config.Services,
		sessions:    config.Sessions,
		database:    config.Database,
		cache:       config.Cache,
		metrics:     config.Metrics,
		baseURL:     config.BaseURL,
		maxBodySize: config.MaxBodySize,
		logger:      config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/status", rt.handleStatus)

		r.Post("/user/register", rt.handleRegister)
		r.Post("/user/login", rt.handleLogin)
		r.Post("/user/logout", rt.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(rt.sessions))

			r.Get("/user/me", rt.handleMe)

			r.Post("/bookshelf", rt.handleCreateBookshelf)
			r.Get("/bookshelf/{id}", rt.handleGetBookshelf)
			r.Put("/bookshelf/{id}", rt.handleRenameBookshelf)
			r.Delete("/bookshelf/{id}", rt.handleDeleteBookshelf)
			r.Get("/bookshelfs", rt.handleListBookshelves)

			r.Post("/category", rt.handleCreateCategory)
			r.Get("/category/{id}", rt.handleGetCategory)
			r.Put("/category/{id}", rt.handleRenameCategory)
			r.Delete("/category/{id}", rt.handleDeleteCategory)
			r.Get("/categories", rt.handleListCategories)

			r.Post("/book", rt.handleCreateBook)
			r.Get("/book/{id}", rt.handleGetBook)
			r.Put("/book/{id}", rt.handleUpdateBook)
			r.Delete("/book/{id}", rt.handleDeleteBook)
			r.Get("/book/{id}/content", rt.handleBookContent)
			r.Get("/books", rt.handleListBooks)
		})
	})

	return r
}

// handleStatus reports whether the database and the cache are reachable.
func (rt *Router) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]bool{
		"db":    rt.ping(ctx, rt.database, "database"),
		"cache": rt.ping(ctx, rt.cache, "cache"),
	}

	code := http.StatusOK
	if !status["db"] || !status["cache"] {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, status)
}

func (rt *Router) ping(ctx context.Context, p Pinger, name string) bool {
	if p == nil {
		return false
	}
	if err := p.Ping(ctx); err != nil {
		rt.logger.Warn().Err(err).Str("dependency", name).Msg("status check failed")
		return false
	}
	return true
}

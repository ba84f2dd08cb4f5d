package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// requestLogger logs every request and records it in the HTTP metrics under
// its route pattern.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		rt.metrics.ObserveRequest(r.Method, route, status, duration)

		event := rt.logger.Info()
		if status >= http.StatusInternalServerError {
			event = rt.logger.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", duration).
			Msg("request")
	})
}

// requestLog returns the router logger tagged with the request id.
func (rt *Router) requestLog(r *http.Request) *zerolog.Logger {
	l := rt.logger.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Logger()
	return &l
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/service"
	"github.com/prn-tf/alexander-library/internal/validation"
)

// errBadRequest marks malformed input caught by a handler before any service call.
var errBadRequest = errors.New("bad request")

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

var badRequestErrors = []error{
	errBadRequest,
	validation.ErrValidation,
	service.ErrInvalidPage,
	domain.ErrUserAlreadyExists,
	domain.ErrInvalidCredentials,
	domain.ErrInvalidEmail,
	domain.ErrWeakPassword,
	domain.ErrBookshelfAlreadyExists,
	domain.ErrBookshelfNotEmpty,
	domain.ErrCategoryAlreadyExists,
	domain.ErrCategoryNotEmpty,
	domain.ErrBookContentMissing,
	domain.ErrBookshelfImmutable,
	domain.ErrNameRequired,
	domain.ErrNameTooLong,
	domain.ErrInvalidYear,
	domain.ErrInvalidPageCount,
}

var notFoundErrors = []error{
	domain.ErrUserNotFound,
	domain.ErrBookshelfNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrCategoryNotInBookshelf,
	domain.ErrBookNotFound,
	domain.ErrContentNotFound,
}

// statusFor maps an error to an HTTP status code and a client-safe message.
// Anything unrecognised is an internal error whose detail stays in the log.
func statusFor(err error) (int, string) {
	switch {
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest, err.Error()
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAccessDenied),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrResourceBusy):
		return http.StatusServiceUnavailable, service.ErrResourceBusy.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleError writes the response for err and logs server-side failures.
func (rt *Router) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		rt.requestLog(r).WithLevel(levelFor(status)).Err(err).Msg("request failed")
	}
	writeError(w, status, message)
}

func levelFor(status int) zerolog.Level {
	if status == http.StatusServiceUnavailable {
		return zerolog.WarnLevel
	}
	return zerolog.ErrorLevel
}

// decodeJSON reads a JSON request body into v.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if rt.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxBodySize)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

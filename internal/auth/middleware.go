package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TokenFromRequest extracts the session token from the Authorization bearer
// header, falling back to the X-Token header.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get(AuthorizationHeader); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, BearerScheme) {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}

// Middleware creates an authentication middleware. Requests without a valid
// session are rejected with 401; a failing session store yields 500.
func Middleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeAuthError(w, ErrMissingToken)
				return
			}

			id, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("session authentication failed")
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// writeAuthError writes a JSON error response.
func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	message := "Unauthorized"
	if errors.Is(err, ErrSessionStoreUnavailable) {
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

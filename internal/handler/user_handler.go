package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/service"
)

// LoginResponse is returned on a successful login. The token is also sent in
// the X-Token header.
type LoginResponse struct {
	Message        string    `json:"message"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LogoutEndpoint string    `json:"logoutEndpoint"`
}

// ProfileResponse is the authenticated user with their totals.
type ProfileResponse struct {
	*domain.User
	NBookshelves int64 `json:"nBookshelves"`
	NCategories  int64 `json:"nCategories"`
	NBooks       int64 `json:"nBooks"`
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	user, err := rt.services.Users.Register(r.Context(), input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	out, err := rt.services.Users.Login(r.Context(), input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	w.Header().Set(auth.TokenHeader, out.Token)
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:        "login was successful",
		Token:          out.Token,
		ExpiresAt:      out.ExpiresAt,
		LogoutEndpoint: rt.origin(r) + APIPrefix + "/user/logout",
	})
}

// handleLogout is outside the auth middleware: a missing or unknown token is
// a 400 here, not a 401.
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	err := rt.services.Users.Logout(r.Context(), auth.TokenFromRequest(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "logout was successful"})
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		rt.handleError(w, r, err)
	}
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := rt.services.Users.Me(r.Context(), userID(r))
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		User:         profile.User,
		NBookshelves: profile.NBookshelves,
		NCategories:  profile.NCategories,
		NBooks:       profile.NBooks,
	})
}

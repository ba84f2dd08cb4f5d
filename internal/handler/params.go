package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/service"
)

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// queryID parses an optional id from the query string.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return &id, nil
}

// queryPage parses the zero-based ?page= parameter. Absent means 0.
func queryPage(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 || page > service.MaxPage {
		return 0, service.ErrInvalidPage
	}
	return page, nil
}

// userID returns the id of the authenticated user.
func userID(r *http.Request) uuid.UUID {
	if id := auth.GetIdentity(r.Context()); id != nil {
		return id.UserID
	}
	return uuid.Nil
}

// origin returns the configured base URL or the one the request came in on.
func (rt *Router) origin(r *http.Request) string {
	if rt.baseURL != "" {
		return strings.TrimRight(rt.baseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded {
	case "http", "https":
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

// pageLink builds the link to page of collection, keeping the scoping
// parameters of the current request.
func (rt *Router) pageLink(r *http.Request, collection string, page *int, keep ...string) *string {
	if page == nil {
		return nil
	}

	q := url.Values{}
	for _, name := range keep {
		if v := r.URL.Query().Get(name); v != "" {
			q.Set(name, v)
		}
	}
	q.Set("page", strconv.Itoa(*page))

	link := rt.origin(r) + APIPrefix + "/" + collection + "?" + q.Encode()
	return &link
}

// pageBody renders a listing page under the collection's key.
func pageBody[T any](rt *Router, r *http.Request, collection string, p *service.Page[T], keep ...string) map[string]any {
	return map[string]any{
		collection:     p.Items,
		"total":        p.Total,
		"currentPage":  p.CurrentPage,
		"previousPage": rt.pageLink(r, collection, p.PreviousPage, keep...),
		"nextPage":     rt.pageLink(r, collection, p.NextPage, keep...),
	}
}

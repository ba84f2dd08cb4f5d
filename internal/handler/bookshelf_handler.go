package handler

import (
	"net/http"

	"github.com/prn-tf/alexander-library/internal/service"
)

func (rt *Router) handleCreateBookshelf(w http.ResponseWriter, r *http.Request) {
	var input service.BookshelfInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	shelf, err := rt.services.Bookshelves.Create(r.Context(), userID(r), input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shelf)
}

func (rt *Router) handleGetBookshelf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	shelf, err := rt.services.Bookshelves.Get(r.Context(), userID(r), id)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shelf)
}

func (rt *Router) handleRenameBookshelf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	var input service.BookshelfInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	shelf, err := rt.services.Bookshelves.Rename(r.Context(), userID(r), id, input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shelf)
}

func (rt *Router) handleDeleteBookshelf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	if err := rt.services.Bookshelves.Delete(r.Context(), userID(r), id); err != nil {
		rt.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleListBookshelves(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	p, err := rt.services.Bookshelves.List(r.Context(), userID(r), page)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageBody(rt, r, "bookshelfs", p))
}

package handler

import (
	"net/http"

	"github.com/prn-tf/alexander-library/internal/service"
)

func (rt *Router) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input service.CreateCategoryInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	category, err := rt.services.Categories.Create(r.Context(), userID(r), input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (rt *Router) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	category, err := rt.services.Categories.Get(r.Context(), userID(r), id)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (rt *Router) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	var input service.RenameCategoryInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	category, err := rt.services.Categories.Rename(r.Context(), userID(r), id, input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (rt *Router) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	if err := rt.services.Categories.Delete(r.Context(), userID(r), id); err != nil {
		rt.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	bookshelfID, err := queryID(r, "bookshelfId")
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	p, err := rt.services.Categories.List(r.Context(), userID(r), bookshelfID, page)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageBody(rt, r, "categories", p, "bookshelfId"))
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/service"
)

// ContentField is the multipart field carrying the book file.
const ContentField = "content"

// multipartMemory is how much of an upload is held in memory before it
// spills to a temporary file.
const multipartMemory = 8 << 20

func (rt *Router) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if rt.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxBodySize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		rt.handleError(w, r, fmt.Errorf("%w: invalid multipart body: %v", errBadRequest, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	input, err := bookForm(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	file, header, err := r.FormFile(ContentField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		rt.handleError(w, r, domain.ErrBookContentMissing)
		return
	case err != nil:
		rt.handleError(w, r, fmt.Errorf("%w: invalid content: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	input.Content = file
	input.ContentName = header.Filename
	input.ContentType = header.Header.Get("Content-Type")

	book, err := rt.services.Books.Create(r.Context(), userID(r), input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// bookForm reads the metadata fields of a multipart book upload.
func bookForm(r *http.Request) (service.CreateBookInput, error) {
	input := service.CreateBookInput{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Author: strings.TrimSpace(r.FormValue("author")),
	}

	var err error
	if input.PublishedInYear, err = formInt(r, "publishedInYear"); err != nil {
		return input, err
	}
	if input.NumberOfPages, err = formInt(r, "numberOfPages"); err != nil {
		return input, err
	}

	if raw := strings.TrimSpace(r.FormValue("bookshelfId")); raw != "" {
		if input.BookshelfID, err = uuid.Parse(raw); err != nil {
			return input, fmt.Errorf("%w: invalid bookshelfId %q", errBadRequest, raw)
		}
	}
	if raw := strings.TrimSpace(r.FormValue("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, fmt.Errorf("%w: invalid categoryId %q", errBadRequest, raw)
		}
		input.CategoryID = &id
	}

	return input, nil
}

func formInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}

func (rt *Router) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	book, err := rt.services.Books.Get(r.Context(), userID(r), id)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (rt *Router) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	var input service.UpdateBookInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		rt.handleError(w, r, err)
		return
	}

	book, err := rt.services.Books.Update(r.Context(), userID(r), id, input)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (rt *Router) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	if err := rt.services.Books.Delete(r.Context(), userID(r), id); err != nil {
		rt.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBookContent streams the stored file of a book.
func (rt *Router) handleBookContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	book, rc, err := rt.services.Books.Content(r.Context(), userID(r), id)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := book.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(book.ContentSize, 10))
	w.Header().Set("ETag", `"`+book.ContentHash+`"`)
	if book.ContentName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": book.ContentName}))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		rt.requestLog(r).Warn().Err(err).Str("book_id", id.String()).Msg("content stream interrupted")
	}
}

func (rt *Router) handleListBooks(w http.ResponseWriter, r *http.Request) {
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
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		rt.handleError(w, r, err)
		return
	}

	p, err := rt.services.Books.List(r.Context(), userID(r), bookshelfID, categoryID, page)
	if err != nil {
		rt.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageBody(rt, r, "books", p, "bookshelfId", "categoryId"))
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/cache/memory"
	"github.com/prn-tf/alexander-library/internal/lock"
	"github.com/prn-tf/alexander-library/internal/metrics"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/repository/sqlite"
	"github.com/prn-tf/alexander-library/internal/service"
	"github.com/prn-tf/alexander-library/internal/storage/filesystem"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	dir := t.TempDir()
	content, err := filesystem.New(filepath.Join(dir, "data"), filepath.Join(dir, "tmp"), zerolog.Nop())
	require.NoError(t, err)

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)
	sessions, err := auth.NewSessionManager(cache, "", time.Hour, zerolog.Nop())
	require.NoError(t, err)

	locker := lock.NewMemoryLocker()
	t.Cleanup(locker.Stop)

	m := metrics.New()
	services := service.New(service.Deps{
		Repos: &repository.Repositories{
			User:      sqlite.NewUserRepository(db),
			Bookshelf: sqlite.NewBookshelfRepository(db),
			Category:  sqlite.NewCategoryRepository(db),
			Book:      sqlite.NewBookRepository(db),
		},
		Content:    content,
		Sessions:   sessions,
		Locker:     locker,
		BcryptCost: bcrypt.MinCost,
		Metrics:    m,
		Logger:     zerolog.Nop(),
	})

	router := NewRouter(RouterConfig{
		Services:    services,
		Sessions:    sessions,
		Database:    db,
		Cache:       cache,
		Metrics:     m,
		MaxBodySize: 10 << 20,
		Logger:      zerolog.Nop(),
	})

	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)
	return server
}

func (c *apiClient) do(method, path string, body io.Reader, contentType string) (*http.Response, map[string]any) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.server.URL+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (c *apiClient) json(method, path string, payload any) (*http.Response, map[string]any) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(data)
	}
	return c.do(method, APIPrefix+path, body, "application/json")
}

func (c *apiClient) uploadBook(fields map[string]string, content string) (*http.Response, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	if content != "" {
		fw, err := mw.CreateFormFile(ContentField, "book.txt")
		require.NoError(c.t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())

	return c.do(http.MethodPost, APIPrefix+"/book", &buf, mw.FormDataContentType())
}

// signUp registers and logs in a fresh user.
func signUp(t *testing.T, server *httptest.Server, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, server: server}

	resp, _ := c.json(http.MethodPost, "/user/register", map[string]string{
		"name": "Reader", "email": email, "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := c.json(http.MethodPost, "/user/login", map[string]string{
		"email": email, "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = body["token"].(string)
	require.Equal(t, c.token, resp.Header.Get(auth.TokenHeader))
	return c
}

func (c *apiClient) create(path string, payload any) string {
	c.t.Helper()
	resp, body := c.json(http.MethodPost, path, payload)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, body)
	return body["id"].(string)
}

func TestAPI_Status(t *testing.T) {
	server := newTestAPI(t)
	c := &apiClient{t: t, server: server}

	resp, body := c.json(http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"db": true, "cache": true}, body)
}

func TestAPI_AuthFlow(t *testing.T) {
	server := newTestAPI(t)
	anon := &apiClient{t: t, server: server}

	resp, body := anon.json(http.MethodPost, "/user/register", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, _ = anon.json(http.MethodGet, "/user/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c := signUp(t, server, "ada@example.com")

	resp, _ = anon.json(http.MethodPost, "/user/register", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "duplicate email")

	resp, _ = anon.json(http.MethodPost, "/user/login", map[string]string{
		"email": "ada@example.com", "password": "Wrong0rd!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = c.json(http.MethodGet, "/user/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotContains(t, body, "passwordHash")
	assert.EqualValues(t, 0, body["nBookshelves"])

	resp, _ = c.json(http.MethodPost, "/user/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.json(http.MethodPost, "/user/logout", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = anon.json(http.MethodPost, "/user/logout", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = c.json(http.MethodGet, "/user/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// A book added to a category bumps its counter; deleting it twice yields 204
// then 404 and leaves the counter at zero.
func TestAPI_BookLifecycle(t *testing.T) {
	server := newTestAPI(t)
	c := signUp(t, server, "ada@example.com")

	shelf := c.create("/bookshelf", map[string]string{"name": "Fiction"})
	category := c.create("/category", map[string]string{"name": "SciFi", "parentId": shelf})

	resp, body := c.uploadBook(map[string]string{
		"name":            "Dune",
		"author":          "Frank Herbert",
		"publishedInYear": "1965",
		"numberOfPages":   "412",
		"bookshelfId":     shelf,
		"categoryId":      category,
	}, "the spice must flow")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	book := body["id"].(string)
	assert.Equal(t, category, body["categoryId"])
	assert.EqualValues(t, 1965, body["publishedInYear"])

	resp, body = c.json(http.MethodGet, "/category/"+category, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["nBooks"])

	resp, _ = c.do(http.MethodGet, APIPrefix+"/book/"+book+"/content", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "book.txt")

	resp, body = c.json(http.MethodPut, "/book/"+book, map[string]any{"name": "Dune", "categoryId": nil})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Nil(t, body["categoryId"])

	_, body = c.json(http.MethodGet, "/category/"+category, nil)
	assert.EqualValues(t, 0, body["nBooks"])

	resp, body = c.json(http.MethodPut, "/book/"+book, map[string]any{"name": "Dune", "categoryId": category})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, _ = c.json(http.MethodDelete, "/category/"+category, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "category is not empty")
	resp, _ = c.json(http.MethodDelete, "/bookshelf/"+shelf, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "bookshelf is not empty")

	resp, _ = c.json(http.MethodDelete, "/book/"+book, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = c.json(http.MethodDelete, "/book/"+book, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = c.json(http.MethodGet, "/category/"+category, nil)
	assert.EqualValues(t, 0, body["nBooks"])

	resp, _ = c.json(http.MethodDelete, "/category/"+category, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = c.json(http.MethodDelete, "/bookshelf/"+shelf, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// A second user cannot read the first user's bookshelf.
func TestAPI_ForeignBookshelf(t *testing.T) {
	server := newTestAPI(t)
	alice := signUp(t, server, "alice@example.com")
	bob := signUp(t, server, "bob@example.com")

	shelf := alice.create("/bookshelf", map[string]string{"name": "Private"})

	resp, _ := bob.json(http.MethodGet, "/bookshelf/"+shelf, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = bob.json(http.MethodPost, "/category", map[string]string{"name": "x", "parentId": shelf})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = bob.json(http.MethodGet, "/bookshelf/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = bob.json(http.MethodGet, "/bookshelf/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// A category from another bookshelf of the same user is rejected with 404.
func TestAPI_CategoryFromOtherBookshelf(t *testing.T) {
	server := newTestAPI(t)
	c := signUp(t, server, "ada@example.com")

	shelfA := c.create("/bookshelf", map[string]string{"name": "A"})
	shelfB := c.create("/bookshelf", map[string]string{"name": "B"})
	categoryB := c.create("/category", map[string]string{"name": "in-b", "parentId": shelfB})

	resp, body := c.uploadBook(map[string]string{
		"name": "Dune", "bookshelfId": shelfA, "categoryId": categoryB,
	}, "content")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, body)

	resp, _ = c.uploadBook(map[string]string{"name": "Dune", "bookshelfId": shelfA}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "content is required")

	resp, _ = c.uploadBook(map[string]string{"name": "Dune", "bookshelfId": shelfA, "numberOfPages": "many"}, "content")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = c.json(http.MethodGet, "/category/"+categoryB, nil)
	assert.EqualValues(t, 0, body["nBooks"])
}

func TestAPI_Pagination(t *testing.T) {
	server := newTestAPI(t)
	c := signUp(t, server, "ada@example.com")

	for i := 0; i < 15; i++ {
		c.create("/bookshelf", map[string]string{"name": fmt.Sprintf("shelf-%02d", i)})
	}

	resp, first := c.json(http.MethodGet, "/bookshelfs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, first["bookshelfs"], 10)
	assert.EqualValues(t, 1, first["currentPage"])
	assert.Nil(t, first["previousPage"])
	assert.Equal(t, server.URL+APIPrefix+"/bookshelfs?page=1", first["nextPage"])

	resp, second := c.json(http.MethodGet, "/bookshelfs?page=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, second["bookshelfs"], 5)
	assert.EqualValues(t, 2, second["currentPage"])
	assert.Equal(t, server.URL+APIPrefix+"/bookshelfs?page=0", second["previousPage"])
	assert.Nil(t, second["nextPage"])

	seen := map[string]bool{}
	for _, page := range []map[string]any{first, second} {
		for _, item := range page["bookshelfs"].([]any) {
			id := item.(map[string]any)["id"].(string)
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 15)

	resp, _ = c.json(http.MethodGet, "/bookshelfs?page=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = c.json(http.MethodGet, "/bookshelfs?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PageOutOfRange(t *testing.T) {
	server := newTestAPI(t)
	c := signUp(t, server, "ada@example.com")

	for i := 0; i < 3; i++ {
		c.create("/bookshelf", map[string]string{"name": fmt.Sprintf("shelf-%d", i)})
	}

	for _, page := range []string{
		strconv.Itoa(service.MaxPage + 1),
		strconv.Itoa(math.MaxInt),
		"99999999999999999999",
	} {
		resp, body := c.json(http.MethodGet, "/bookshelfs?page="+page, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "page=%s", page)
		assert.NotContains(t, body, "bookshelfs")
	}

	resp, body := c.json(http.MethodGet, "/bookshelfs?page="+strconv.Itoa(service.MaxPage), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["bookshelfs"])
	assert.EqualValues(t, 3, body["total"])
	assert.Nil(t, body["nextPage"])
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		forwarded string
		want      string
	}{
		{"request host", "", "", "http://library.test"},
		{"forwarded https", "", "https", "https://library.test"},
		{"forwarded mixed case", "", "HTTPS", "https://library.test"},
		{"forwarded unknown scheme", "", "javascript", "http://library.test"},
		{"forwarded list", "", "https, http", "http://library.test"},
		{"base url wins", "https://books.example.com/", "http", "https://books.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &Router{baseURL: tt.baseURL}
			r := httptest.NewRequest(http.MethodGet, "http://library.test/api/v1/books", nil)
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			assert.Equal(t, tt.want, rt.origin(r))
		})
	}
}

func TestAPI_ScopedLinks(t *testing.T) {
	server := newTestAPI(t)
	c := signUp(t, server, "ada@example.com")

	shelf := c.create("/bookshelf", map[string]string{"name": "A"})
	for i := 0; i < 11; i++ {
		resp, body := c.uploadBook(map[string]string{
			"name": fmt.Sprintf("book-%02d", i), "bookshelfId": shelf,
		}, fmt.Sprintf("content %d", i))
		require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	}

	resp, body := c.json(http.MethodGet, "/books?bookshelfId="+shelf, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["books"], 10)
	assert.Equal(t, server.URL+APIPrefix+"/books?bookshelfId="+shelf+"&page=1", body["nextPage"])
	assert.EqualValues(t, 11, body["total"])

	resp, _ = c.json(http.MethodGet, "/books?categoryId=bad", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrResourceBusy, http.StatusServiceUnavailable},
		{service.ErrInternalError, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", service.ErrInvalidPage), http.StatusBadRequest},
		{errBadRequest, http.StatusBadRequest},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		got, _ := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

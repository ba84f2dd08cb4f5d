// Package integration provides end-to-end tests for a running Alexander library server.
// Tests are skipped unless ALEXANDER_ENDPOINT points at a live instance.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type client struct {
	t        *testing.T
	endpoint string
	token    string
	http     *http.Client
}

func newClient(t *testing.T) *client {
	t.Helper()

	endpoint := os.Getenv("ALEXANDER_ENDPOINT")
	if endpoint == "" {
		t.Skip("ALEXANDER_ENDPOINT not set")
	}
	return &client{t: t, endpoint: endpoint, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *client) do(method, path, contentType string, body io.Reader) (int, []byte) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.endpoint+"/api/v1"+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *client) json(method, path string, in, out any) int {
	c.t.Helper()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		require.NoError(c.t, err)
		body = bytes.NewReader(data)
	}
	status, data := c.do(method, path, "application/json", body)
	if out != nil && len(data) > 0 {
		require.NoError(c.t, json.Unmarshal(data, out), string(data))
	}
	return status
}

// signUp registers a fresh user and logs in as them.
func (c *client) signUp() {
	c.t.Helper()

	email := uuid.NewString() + "@example.com"
	creds := map[string]string{"name": "Reader", "email": email, "password": "Passw0rd!"}
	require.Equal(c.t, http.StatusCreated, c.json(http.MethodPost, "/user/register", creds, nil))

	var login struct {
		Token string `json:"token"`
	}
	require.Equal(c.t, http.StatusOK, c.json(http.MethodPost, "/user/login", creds, &login))
	require.NotEmpty(c.t, login.Token)
	c.token = login.Token
}

func TestStatus(t *testing.T) {
	c := newClient(t)

	var status map[string]bool
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/status", nil, &status))
	require.True(t, status["db"])
	require.True(t, status["cache"])
}

func TestBookRoundTrip(t *testing.T) {
	c := newClient(t)
	c.signUp()

	var shelf struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/bookshelf", map[string]string{"name": "Integration"}, &shelf))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Dune"))
	require.NoError(t, w.WriteField("bookshelfId", shelf.ID))
	part, err := w.CreateFormFile("content", "dune.epub")
	require.NoError(t, err)
	content := []byte("integration content " + uuid.NewString())
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, data := c.do(http.MethodPost, "/book", w.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, status, string(data))

	var book struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &book))

	status, data = c.do(http.MethodGet, "/book/"+book.ID+"/content", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, content, data)

	status, _ = c.do(http.MethodDelete, "/book/"+book.ID, "", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = c.do(http.MethodDelete, "/bookshelf/"+shelf.ID, "", nil)
	require.Equal(t, http.StatusNoContent, status)
}

func TestForeignAccessDenied(t *testing.T) {
	owner := newClient(t)
	owner.signUp()

	var shelf struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, owner.json(http.MethodPost, "/bookshelf", map[string]string{"name": "Private"}, &shelf))

	other := newClient(t)
	other.signUp()
	require.Equal(t, http.StatusUnauthorized, other.json(http.MethodGet, "/bookshelf/"+shelf.ID, nil, nil))
}

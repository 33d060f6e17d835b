package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/books-api/internal/config"
	"github.com/aanand-mishra/books-api/internal/storage/sqlite"
	"github.com/aanand-mishra/books-api/internal/types"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)

	ts := httptest.NewServer(Routes(store, discardLogger))
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})

	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func listBooks(t *testing.T, ts *httptest.Server) []types.Book {
	t.Helper()

	status, data := do(t, ts, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, status)

	var list types.BookList
	require.NoError(t, json.Unmarshal(data, &list))
	return list.Books
}

func createBook(t *testing.T, ts *httptest.Server, body string) types.Book {
	t.Helper()

	status, data := do(t, ts, http.MethodPost, "/books", body)
	require.Equal(t, http.StatusCreated, status, string(data))

	var book types.Book
	require.NoError(t, json.Unmarshal(data, &book))
	return book
}

func bookPath(id int64) string {
	return "/books/" + strconv.FormatInt(id, 10)
}

func TestEmptyListIsArray(t *testing.T) {
	ts := setupTestServer(t)

	status, data := do(t, ts, http.MethodGet, "/books", "")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"books":[]}`, string(data))
}

func TestCreateThenList(t *testing.T) {
	ts := setupTestServer(t)

	book := createBook(t, ts, `{"title":"A","author":"B"}`)

	assert.NotZero(t, book.ID)
	assert.Equal(t, "", book.Genre)
	assert.Contains(t, listBooks(t, ts), book)
}

func TestCreateWithoutTitle(t *testing.T) {
	ts := setupTestServer(t)
	createBook(t, ts, `{"title":"A","author":"B"}`)

	status, data := do(t, ts, http.MethodPost, "/books", `{"author":"B"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), "field title is required")
	assert.Len(t, listBooks(t, ts), 1)
}

func TestUpdateMissingBook(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := do(t, ts, http.MethodPatch, "/books/9999", `{"title":"x"}`)

	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateGenreAndEmptyPatch(t *testing.T) {
	ts := setupTestServer(t)
	book := createBook(t, ts, `{"title":"A","author":"B","genre":"drama"}`)

	status, data := do(t, ts, http.MethodPatch, bookPath(book.ID), `{"genre":""}`)
	require.Equal(t, http.StatusOK, status)

	var cleared types.Book
	require.NoError(t, json.Unmarshal(data, &cleared))
	assert.Equal(t, types.Book{ID: book.ID, Title: "A", Author: "B", Genre: ""}, cleared)

	status, data = do(t, ts, http.MethodPatch, bookPath(book.ID), `{}`)
	require.Equal(t, http.StatusOK, status)

	var unchanged types.Book
	require.NoError(t, json.Unmarshal(data, &unchanged))
	assert.Equal(t, cleared, unchanged)

	status, data = do(t, ts, http.MethodGet, bookPath(book.ID), "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":`+strconv.FormatInt(book.ID, 10)+`,"title":"A","author":"B","genre":""}`, string(data))
}

func TestUpdateEmptyTitleIsIgnored(t *testing.T) {
	ts := setupTestServer(t)
	book := createBook(t, ts, `{"title":"A","author":"B","genre":"g"}`)

	status, data := do(t, ts, http.MethodPatch, bookPath(book.ID), `{"title":""}`)

	require.Equal(t, http.StatusOK, status, string(data))
	var got types.Book
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, book, got)
	assert.Equal(t, []types.Book{book}, listBooks(t, ts))
}

func TestUpdateNullFieldsAreAbsent(t *testing.T) {
	ts := setupTestServer(t)
	book := createBook(t, ts, `{"title":"A","author":"B","genre":"g"}`)

	status, data := do(t, ts, http.MethodPatch, bookPath(book.ID), `{"title":null,"genre":null}`)

	require.Equal(t, http.StatusOK, status)
	var got types.Book
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, book, got)
}

func TestUpdateTrailingDataRejected(t *testing.T) {
	ts := setupTestServer(t)
	book := createBook(t, ts, `{"title":"A","author":"B"}`)

	status, _ := do(t, ts, http.MethodPatch, bookPath(book.ID), `{"title":"x"} junk`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []types.Book{book}, listBooks(t, ts))
}

func TestUpdateIsIdempotent(t *testing.T) {
	ts := setupTestServer(t)
	book := createBook(t, ts, `{"title":"A","author":"B"}`)
	patch := `{"title":"New","genre":"poetry"}`

	_, first := do(t, ts, http.MethodPatch, bookPath(book.ID), patch)
	_, second := do(t, ts, http.MethodPatch, bookPath(book.ID), patch)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, []types.Book{{ID: book.ID, Title: "New", Author: "B", Genre: "poetry"}}, listBooks(t, ts))
}

func TestDeleteTwice(t *testing.T) {
	ts := setupTestServer(t)
	book := createBook(t, ts, `{"title":"A","author":"B"}`)

	status, data := do(t, ts, http.MethodDelete, bookPath(book.ID), "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Book deleted successfully"}`, string(data))
	assert.Empty(t, listBooks(t, ts))

	status, _ = do(t, ts, http.MethodDelete, bookPath(book.ID), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := do(t, ts, http.MethodPut, "/books/1", `{"title":"x"}`)

	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestHealthz(t *testing.T) {
	ts := setupTestServer(t)

	status, data := do(t, ts, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestServer_StartShutdown(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)

	cfg := config.HTTPServer{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}
	srv := New(cfg, store, discardLogger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, <-errCh)
	assert.Error(t, store.Ping(context.Background()), "store should be closed")
}

func TestServer_RunStopsOnContextCancel(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)

	cfg := config.HTTPServer{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}
	srv := New(cfg, store, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	cancel()
	assert.NoError(t, <-errCh)
	assert.Error(t, store.Ping(context.Background()), "store should be closed")
}

func TestServer_RunClosesStoreWhenListenFails(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)

	cfg := config.HTTPServer{Addr: taken.Addr().String(), ShutdownTimeout: time.Second}
	srv := New(cfg, store, discardLogger)

	err = srv.Run(context.Background())

	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()), "store should be closed")
}

// Package book contains all HTTP handlers for the Book resource.
//
// Handlers are built with the closure / factory pattern: each exported
// function receives its dependencies once at route registration and
// returns the http.HandlerFunc that runs on every request.
//
//	router.HandleFunc("POST /books", book.New(storage, log))
package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/books-api/internal/storage"
	"github.com/aanand-mishra/books-api/internal/types"
	"github.com/aanand-mishra/books-api/internal/utils/response"
	"github.com/aanand-mishra/books-api/internal/validation"
)

// DeletedMessage is the confirmation returned by DELETE /books/{id}.
const DeletedMessage = "Book deleted successfully"

var errInvalidID = errors.New("invalid id: must be an integer")

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /books
//
// Request body (JSON):
//
//	{ "title": "Dune", "author": "Frank Herbert", "genre": "sci-fi" }
//
// Success response (201 Created) — the stored book:
//
//	{ "id": 1, "title": "Dune", "author": "Frank Herbert", "genre": "sci-fi" }
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("creating a book")

		var req types.CreateBookRequest
		if err := validation.Decode(r.Body, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if !validateRequest(w, req) {
			return
		}

		book, err := storage.CreateBook(r.Context(), req)
		if err != nil {
			log.Error("error creating book", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		log.Info("book created", slog.Int64("id", book.ID))
		response.WriteJSON(w, http.StatusCreated, book)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /books
//
// Success response (200 OK):
//
//	{ "books": [ { "id": 1, "title": "Dune", ... } ] }
//
// An empty store yields { "books": [] }.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("getting all books")

		books, err := storage.ListBooks(r.Context())
		if err != nil {
			log.Error("error getting books", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, types.BookList{Books: books})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /books/{id}
//
// Error responses:
//
//	400 Bad Request  — id is not a valid integer
//	404 Not Found    — no book with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		log.Info("getting a book", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		book, err := storage.GetBookByID(r.Context(), intID)
		if err != nil {
			writeStorageError(w, log, "error getting book", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, book)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /books/{id}
// Changes only the fields present in the body.
//
// Request body (JSON) — every field optional:
//
//	{ "genre": "" }      clears the genre, title and author untouched
//	{ "title": "" }      ignored: a book always keeps its title and author
//	{}                   changes nothing
//
// Success response (200 OK) — the full updated book.
//
// Error responses:
//
//	400 Bad Request  — invalid id or malformed JSON
//	404 Not Found    — no book with that id (checked before the body is read)
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		log.Info("updating a book", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		current, err := storage.GetBookByID(r.Context(), intID)
		if err != nil {
			writeStorageError(w, log, "error getting book", id, err)
			return
		}

		// An empty body is the same as {}: nothing to change.
		var req types.UpdateBookRequest
		if err := validation.Decode(r.Body, &req); err != nil &&
			!errors.Is(err, validation.ErrEmptyBody) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		req = req.IgnoreBlank()

		if req.IsEmpty() {
			response.WriteJSON(w, http.StatusOK, current)
			return
		}

		updated, err := storage.UpdateBookByID(r.Context(), intID, req)
		if err != nil {
			writeStorageError(w, log, "error updating book", id, err)
			return
		}

		log.Info("book updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /books/{id}
//
// Success response (200 OK):
//
//	{ "message": "Book deleted successfully" }
//
// Error responses:
//
//	400 Bad Request  — invalid id
//	404 Not Found    — no book with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		log.Info("deleting a book", slog.String("id", id))

		intID, ok := parseID(w, id)
		if !ok {
			return
		}

		if err := storage.DeleteBookByID(r.Context(), intID); err != nil {
			writeStorageError(w, log, "error deleting book", id, err)
			return
		}

		log.Info("book deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: DeletedMessage})
	}
}

func parseID(w http.ResponseWriter, id string) (int64, bool) {
	intID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
		return 0, false
	}
	return intID, true
}

// validateRequest writes a 400 and returns false when req fails its tags.
func validateRequest(w http.ResponseWriter, req any) bool {
	err := validation.Struct(req)
	if err == nil {
		return true
	}

	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
		return false
	}

	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	return false
}

// writeStorageError maps storage.ErrNotFound to 404 and anything else to 500.
func writeStorageError(w http.ResponseWriter, log *slog.Logger, msg, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrNotFound))
		return
	}

	log.Error(msg, slog.String("id", id), slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}

// Package storage defines the Storage interface — the contract any
// database backend must satisfy to serve the books API.
//
// Handlers depend only on this interface. Switching databases means
// implementing it for the new engine and selecting it in storage/open;
// no handler changes.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/books-api/internal/types"
)

// ErrNotFound is returned (possibly wrapped) when no book has the
// requested id. Callers test for it with errors.Is.
var ErrNotFound = errors.New("book not found")

// Storage is the database contract.
type Storage interface {
	// ListBooks returns every book ordered by id.
	// Returns an empty slice (not nil) if there are no books.
	ListBooks(ctx context.Context) ([]types.Book, error)

	// GetBookByID fetches a single book by primary key.
	GetBookByID(ctx context.Context, id int64) (types.Book, error)

	// CreateBook inserts a new book and returns it with its assigned id.
	CreateBook(ctx context.Context, req types.CreateBookRequest) (types.Book, error)

	// UpdateBookByID applies the fields present in req in a single
	// atomic statement and returns the stored result.
	UpdateBookByID(ctx context.Context, id int64, req types.UpdateBookRequest) (types.Book, error)

	// DeleteBookByID removes a book permanently.
	DeleteBookByID(ctx context.Context, id int64) error

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}

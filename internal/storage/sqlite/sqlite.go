// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process. The blank import below registers the sqlite3
// driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/books-api/internal/storage"
	"github.com/aanand-mishra/books-api/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// *sql.DB is a connection pool, safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at path, creates the books table if it
// does not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// busy_timeout makes concurrent writers wait instead of failing
	// immediately with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent — safe on every startup.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			title  TEXT NOT NULL,
			author TEXT NOT NULL,
			genre  TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateBook inserts a new row and returns it as stored.
// RETURNING saves a second round trip to read the assigned id.
func (s *SQLite) CreateBook(ctx context.Context, req types.CreateBookRequest) (types.Book, error) {
	var book types.Book

	err := s.Db.QueryRowContext(ctx,
		"INSERT INTO books (title, author, genre) VALUES (?, ?, ?) RETURNING id, title, author, genre",
		req.Title, req.Author, req.Genre,
	).Scan(&book.ID, &book.Title, &book.Author, &book.Genre)
	if err != nil {
		return types.Book{}, fmt.Errorf("CreateBook: insert: %w", err)
	}

	return book, nil
}

// GetBookByID fetches exactly one book by primary key.
func (s *SQLite) GetBookByID(ctx context.Context, id int64) (types.Book, error) {
	var book types.Book

	err := s.Db.QueryRowContext(ctx,
		"SELECT id, title, author, genre FROM books WHERE id = ? LIMIT 1", id,
	).Scan(&book.ID, &book.Title, &book.Author, &book.Genre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, fmt.Errorf("GetBookByID %d: %w", id, storage.ErrNotFound)
		}
		return types.Book{}, fmt.Errorf("GetBookByID: scan: %w", err)
	}

	return book, nil
}

// ListBooks returns all rows ordered by id.
func (s *SQLite) ListBooks(ctx context.Context) ([]types.Book, error) {
	rows, err := s.Db.QueryContext(ctx, "SELECT id, title, author, genre FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ListBooks: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so the JSON envelope encodes [] rather than null.
	books := make([]types.Book, 0)

	for rows.Next() {
		var book types.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Genre); err != nil {
			return nil, fmt.Errorf("ListBooks: scan row: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBooks: rows iteration: %w", err)
	}

	return books, nil
}

// UpdateBookByID overwrites only the columns whose request field is set.
// A nil pointer binds as NULL, and COALESCE keeps the current value.
func (s *SQLite) UpdateBookByID(ctx context.Context, id int64, req types.UpdateBookRequest) (types.Book, error) {
	var book types.Book

	err := s.Db.QueryRowContext(ctx, `
		UPDATE books
		SET title  = COALESCE(?, title),
		    author = COALESCE(?, author),
		    genre  = COALESCE(?, genre)
		WHERE id = ?
		RETURNING id, title, author, genre`,
		req.Title, req.Author, req.Genre, id,
	).Scan(&book.ID, &book.Title, &book.Author, &book.Genre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, fmt.Errorf("UpdateBookByID %d: %w", id, storage.ErrNotFound)
		}
		return types.Book{}, fmt.Errorf("UpdateBookByID: exec: %w", err)
	}

	return book, nil
}

// DeleteBookByID removes a row by primary key.
func (s *SQLite) DeleteBookByID(ctx context.Context, id int64) error {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteBookByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteBookByID: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("DeleteBookByID %d: %w", id, storage.ErrNotFound)
	}

	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

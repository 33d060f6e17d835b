// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/books-api/internal/storage"
	"github.com/aanand-mishra/books-api/internal/types"
)

const defaultTimeout = 5 * time.Second

type Postgres struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// New connects to dsn, verifies the connection and creates the books
// table if it is missing.
func New(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	p := &Postgres{db: pool, timeout: defaultTimeout}

	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	_, err = pool.Exec(timeoutCtx, `
		CREATE TABLE IF NOT EXISTS books (
			id     BIGSERIAL PRIMARY KEY,
			title  TEXT NOT NULL,
			author TEXT NOT NULL,
			genre  TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return p, nil
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Postgres) CreateBook(ctx context.Context, req types.CreateBookRequest) (types.Book, error) {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	book, err := scanBook(p.db.QueryRow(timeoutCtx,
		"INSERT INTO books (title, author, genre) VALUES ($1, $2, $3) RETURNING id, title, author, genre",
		req.Title, req.Author, req.Genre,
	))
	if err != nil {
		return types.Book{}, fmt.Errorf("CreateBook: insert: %w", err)
	}

	return book, nil
}

func (p *Postgres) GetBookByID(ctx context.Context, id int64) (types.Book, error) {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	return getBook(p.db.QueryRow(timeoutCtx,
		"SELECT id, title, author, genre FROM books WHERE id = $1", id,
	), "GetBookByID", id)
}

func (p *Postgres) ListBooks(ctx context.Context) ([]types.Book, error) {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.db.Query(timeoutCtx, "SELECT id, title, author, genre FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ListBooks: query: %w", err)
	}

	books, err := collectBooks(rows)
	if err != nil {
		return nil, fmt.Errorf("ListBooks: %w", err)
	}

	return books, nil
}

// UpdateBookByID sets only the columns present in req; nil pointers are
// sent as NULL and COALESCE keeps the stored value.
func (p *Postgres) UpdateBookByID(ctx context.Context, id int64, req types.UpdateBookRequest) (types.Book, error) {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	return getBook(p.db.QueryRow(timeoutCtx, `
		UPDATE books
		SET title  = COALESCE($1, title),
		    author = COALESCE($2, author),
		    genre  = COALESCE($3, genre)
		WHERE id = $4
		RETURNING id, title, author, genre`,
		req.Title, req.Author, req.Genre, id,
	), "UpdateBookByID", id)
}

func (p *Postgres) DeleteBookByID(ctx context.Context, id int64) error {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	commandTag, err := p.db.Exec(timeoutCtx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("DeleteBookByID: exec: %w", err)
	}

	return checkDeleted(commandTag, id)
}

func (p *Postgres) Ping(ctx context.Context) error {
	timeoutCtx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.db.Ping(timeoutCtx)
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

// scanBook reads the id, title, author, genre columns of one row.
func scanBook(row pgx.Row) (types.Book, error) {
	var b types.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre)
	return b, err
}

// getBook scans a single-row result and maps pgx.ErrNoRows to
// storage.ErrNotFound.
func getBook(row pgx.Row, op string, id int64) (types.Book, error) {
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Book{}, fmt.Errorf("%s %d: %w", op, id, storage.ErrNotFound)
		}
		return types.Book{}, fmt.Errorf("%s: scan: %w", op, err)
	}
	return book, nil
}

// collectBooks drains rows; an empty result is a non-nil empty slice.
func collectBooks(rows pgx.Rows) ([]types.Book, error) {
	books, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Book, error) {
		return scanBook(row)
	})
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}

	if books == nil {
		books = make([]types.Book, 0)
	}

	return books, nil
}

func checkDeleted(tag pgconn.CommandTag, id int64) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteBookByID %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

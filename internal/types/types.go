// Package types holds the data structures shared across the application.
// Keeping them in one place prevents import cycles: handlers, storage,
// and validation all import types without depending on each other.
package types

// Book is a single record of the books table.
//
// The JSON keys are the wire format of every endpoint that returns a book:
//
//	{ "id": 1, "title": "Dune", "author": "Frank Herbert", "genre": "sci-fi" }
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// BookList is the envelope returned by GET /books.
type BookList struct {
	Books []Book `json:"books"`
}

// CreateBookRequest is the body accepted by POST /books.
//
// Title and Author must be present and non-empty. Genre is optional and
// falls back to its zero value "" when the client omits it.
type CreateBookRequest struct {
	Title  string `json:"title"  validate:"required"`
	Author string `json:"author" validate:"required"`
	Genre  string `json:"genre"`
}

// UpdateBookRequest is the body accepted by PATCH /books/{id}.
//
// Every field is a pointer so a request can say three different things:
//
//	nil        — field absent (or JSON null): leave the column unchanged
//	&""        — field present but empty
//	&"value"   — field present with a new value
//
// Only Genre honours &"": it clears the genre. An empty Title or Author
// is ignored (see IgnoreBlank), so a book always keeps both.
type UpdateBookRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Genre  *string `json:"genre"`
}

// IgnoreBlank returns r with an empty Title or Author treated as absent.
func (r UpdateBookRequest) IgnoreBlank() UpdateBookRequest {
	if r.Title != nil && *r.Title == "" {
		r.Title = nil
	}
	if r.Author != nil && *r.Author == "" {
		r.Author = nil
	}
	return r
}

// IsEmpty reports whether the request changes nothing.
func (r UpdateBookRequest) IsEmpty() bool {
	return r.Title == nil && r.Author == nil && r.Genre == nil
}

// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler sends JSON back to the client. Rather than repeating the
// same three steps (set header, set status, encode JSON) in every handler,
// we centralise them here.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a book, a list, a message).
// Error responses always look like:
//
//	{ "status": "error", "error": "field title is required" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Message is the body of responses that only confirm an action.
type Message struct {
	Message string `json:"message"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Order matters: Header() → WriteHeader() → body writes. Once WriteHeader
// is called, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// OK is the body of a successful health check.
func OK() Response {
	return Response{Status: StatusOK}
}

// GeneralError wraps any Go error into the standard Response shape.
//
//	response.WriteJSON(w, http.StatusInternalServerError,
//	    response.GeneralError(err))
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts validator field errors into a single
// human-readable Response, one sentence per field joined with ", ".
//
//	{ "status": "error", "error": "field title is required, field author is required" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
